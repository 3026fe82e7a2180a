// Package render rasterizes player line drawings to PNG files.
package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

// dotRadius is the radius of a stroke made of a single point.
const dotRadius = 2

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one pen line. Color is a hex string such as "#000000".
type Stroke struct {
	Points []Point
	Color  string
	Width  float64
}

// Drawing is a canvas of strokes. An empty Background leaves the canvas
// transparent.
type Drawing struct {
	Width      int
	Height     int
	Background string
	Strokes    []Stroke
}

// Renderer writes a Drawing as an image file.
type Renderer interface {
	Render(d Drawing, path string) error
}

// PNGRenderer renders drawings with gg.
type PNGRenderer struct{}

// Render rasterizes d and writes a PNG to path.
func (PNGRenderer) Render(d Drawing, path string) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", d.Width, d.Height)
	}

	dc := gg.NewContext(d.Width, d.Height)
	if d.Background != "" {
		dc.SetHexColor(d.Background)
		dc.Clear()
	}
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, s := range d.Strokes {
		drawStroke(dc, s)
	}

	return savePNG(dc, path)
}

func drawStroke(dc *gg.Context, s Stroke) {
	switch len(s.Points) {
	case 0:
		return
	case 1:
		p := s.Points[0]
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(s.Width)
		dc.DrawCircle(p.X, p.Y, dotRadius)
		dc.FillPreserve()
		dc.Stroke()
	default:
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(s.Width)
		dc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}
}

// savePNG encodes into a temp file beside path and renames it into place.
func savePNG(dc *gg.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := dc.EncodePNG(w); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}
