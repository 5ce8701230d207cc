package keypoints

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func square(x, y, size float64) Quad {
	return Quad{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
}

func TestSet_InsertionOrder(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("tin", square(0, 0, 10)))
	require.NoError(t, s.Add("left-square", square(5, 5, 10)))
	require.NoError(t, s.Add("front-wall-down", square(1, 1, 2)))

	assert.Equal(t, []string{"tin", "left-square", "front-wall-down"}, s.Names())

	var seen []string
	s.Each(func(name string, _ Quad) { seen = append(seen, name) })
	assert.Equal(t, s.Names(), seen)
}

func TestSet_ReplaceKeepsPosition(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("a", square(0, 0, 1)))
	require.NoError(t, s.Add("b", square(0, 0, 1)))
	require.NoError(t, s.Add("a", square(9, 9, 1)))

	assert.Equal(t, []string{"a", "b"}, s.Names())
	q, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, square(9, 9, 1), q)
}

func TestSet_EmptyName(t *testing.T) {
	var s Set
	assert.ErrorIs(t, s.Add("", Quad{}), ErrEmptyName)
	assert.True(t, s.Empty())
}

func TestSet_ZeroValue(t *testing.T) {
	var s Set
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Len())
	_, ok := s.Get("tin")
	assert.False(t, ok)
	assert.True(t, s.Equal(NewSet()))
}

func TestSet_CloneIsIndependent(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("tin", square(0, 0, 10)))
	c := s.Clone()
	require.NoError(t, c.Add("extra", square(1, 1, 1)))
	require.NoError(t, c.Add("tin", square(50, 50, 1)))

	assert.Equal(t, 1, s.Len())
	q, _ := s.Get("tin")
	assert.Equal(t, square(0, 0, 10), q)
}

func TestSet_Equal(t *testing.T) {
	a, err := FromQuads([]string{"x", "y"}, []Quad{square(0, 0, 1), square(1, 1, 1)})
	require.NoError(t, err)
	b, err := FromQuads([]string{"y", "x"}, []Quad{square(1, 1, 1), square(0, 0, 1)})
	require.NoError(t, err)

	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(b), "order matters")
}

func TestFromQuads_LengthMismatch(t *testing.T) {
	_, err := FromQuads([]string{"a"}, nil)
	assert.Error(t, err)
}

func TestQuad_ScaleAndFinite(t *testing.T) {
	q := square(10, 20, 10).Scale(2, 0.5)
	assert.Equal(t, Point{X: 20, Y: 10}, q[0])
	assert.Equal(t, Point{X: 40, Y: 15}, q[2])
	assert.True(t, q.Finite())

	q[1].X = math.NaN()
	assert.False(t, q.Finite())
}

func TestDecode_PreservesDocumentOrder(t *testing.T) {
	doc := `
tin: [[10, 20], [110, 20], [110, 30], [10, 30]]
left-square:
  - [0, 200]
  - [50, 200]
  - [50, 250]
  - [0, 250]
front-wall-down: [[-5, 0], [10, 0], [10, 5], [-5, 5]]
`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"tin", "left-square", "front-wall-down"}, s.Names())

	q, ok := s.Get("front-wall-down")
	require.True(t, ok)
	assert.Equal(t, Point{X: -5, Y: 0}, q[0])
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not a mapping", doc: "- a\n- b\n"},
		{name: "three corners", doc: "tin: [[0, 0], [1, 0], [1, 1]]\n"},
		{name: "bad pair", doc: "tin: [[0, 0, 1], [1, 0], [1, 1], [0, 1]]\n"},
		{name: "not numbers", doc: "tin: [[a, b], [1, 0], [1, 1], [0, 1]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	s, err := FromQuads([]string{"right-square", "tin"}, []Quad{square(1, 2, 3), square(4, 5, 6)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&buf).Encode(s))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, s.Equal(back), "got %v", back)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "court.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tin: [[0, 0], [1, 0], [1, 1], [0, 1]]\n"), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
