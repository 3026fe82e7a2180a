package games

import (
	"bytes"
	"encoding/json"

	"github.com/soyeahso/jackbot/internal/render"
)

type player struct {
	Name string `json:"name"`
}

// line is a pen stroke with object points.
type line struct {
	Points    []render.Point `json:"points"`
	Color     string         `json:"color"`
	Thickness float64        `json:"thickness"`
}

func toDrawing(width, height int, background string, lines []line) render.Drawing {
	d := render.Drawing{Width: width, Height: height, Background: background}
	for _, l := range lines {
		d.Strokes = append(d.Strokes, render.Stroke{Points: l.Points, Color: l.Color, Width: l.Thickness})
	}
	return d
}

// flexID is an identifier the service sends as either a string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
