package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// Style controls how regions are drawn.
type Style struct {
	// Colors maps a class name to its drawing color.
	Colors map[string]color.RGBA
	// Fallback is used for classes missing from Colors.
	Fallback color.RGBA
	// LineThickness is the outline and label stroke width in pixels.
	LineThickness int
	// FontScale scales the label text; 0.5 draws the base 7x13 font.
	FontScale float64
	// CornerRadius is the radius of the filled corner markers. Zero
	// disables the markers.
	CornerRadius int
}

// DefaultColors is the court class palette.
func DefaultColors() map[string]color.RGBA {
	return map[string]color.RGBA{
		"tin":             {R: 255, G: 255, B: 0, A: 255},
		"left-square":     {R: 0, G: 0, B: 255, A: 255},
		"right-square":    {R: 0, G: 255, B: 0, A: 255},
		"front-wall-down": {R: 255, G: 0, B: 0, A: 255},
	}
}

// DefaultStyle returns the standard court overlay style.
func DefaultStyle() Style {
	return Style{
		Colors:        DefaultColors(),
		Fallback:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		LineThickness: 2,
		FontScale:     0.6,
		CornerRadius:  5,
	}
}

// Validate checks the numeric options.
func (s Style) Validate() error {
	if s.LineThickness < 1 {
		return fmt.Errorf("line thickness must be >= 1, got %d", s.LineThickness)
	}
	if s.FontScale <= 0 {
		return fmt.Errorf("font scale must be positive, got %.2f", s.FontScale)
	}
	if s.CornerRadius < 0 {
		return fmt.Errorf("corner radius must be >= 0, got %d", s.CornerRadius)
	}
	return nil
}

// ColorFor resolves the color of a class.
func (s Style) ColorFor(class string) color.RGBA {
	if c, ok := s.Colors[class]; ok {
		return c
	}
	return s.Fallback
}

// ParseHexColor parses colors like "#RRGGBB" or "RRGGBB".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, errors.New("color must be #RRGGBB")
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
