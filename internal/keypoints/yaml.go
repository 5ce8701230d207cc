package keypoints

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a mapping of class name to four [x, y] pairs,
// keeping the document order of the classes.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("keypoints: line %d: expected a mapping of class names", node.Line)
	}
	var out Set
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var corners [][]float64
		if err := val.Decode(&corners); err != nil {
			return fmt.Errorf("keypoints: class %q: %w", key.Value, err)
		}
		if len(corners) != 4 {
			return fmt.Errorf("keypoints: class %q: expected 4 corners, got %d", key.Value, len(corners))
		}
		var q Quad
		for j, c := range corners {
			if len(c) != 2 {
				return fmt.Errorf("keypoints: class %q corner %d: expected [x, y]", key.Value, j)
			}
			q[j] = Point{X: c[0], Y: c[1]}
		}
		if err := out.Add(key.Value, q); err != nil {
			return err
		}
	}
	*s = out
	return nil
}

// MarshalYAML encodes the set as an ordered mapping of [x, y] pairs.
func (s Set) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range s.names {
		q := s.quads[name]
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range q {
			pair := &yaml.Node{}
			if err := pair.Encode([]float64{p.X, p.Y}); err != nil {
				return nil, err
			}
			pair.Style = yaml.FlowStyle
			seq.Content = append(seq.Content, pair)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			seq,
		)
	}
	return node, nil
}

// Decode reads a set from YAML.
func Decode(r io.Reader) (Set, error) {
	var s Set
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Set{}, err
	}
	return s, nil
}

// LoadFile reads a set from a YAML file.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided calibration file
	if err != nil {
		return Set{}, err
	}
	defer func() { _ = f.Close() }()
	s, err := Decode(f)
	if err != nil {
		return Set{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}
