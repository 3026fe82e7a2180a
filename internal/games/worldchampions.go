package games

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soyeahso/jackbot/internal/batch"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/render"
)

// champLineScale widens multi-point strokes to match the in-game look.
const champLineScale = 5

type champLine struct {
	Points    string  `json:"points"` // "x,y|x,y|..."
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
}

type champDrawing struct {
	Name   string `json:"name"`
	Player struct {
		Name  string      `json:"name"`
		Score json.Number `json:"score"`
	} `json:"player"`
	VoteData struct {
		IsWinner bool `json:"isWinner"`
	} `json:"voteData"`
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"size"`
	Lines []champLine `json:"lines"`
}

type champMatchup struct {
	FullTitle  string       `json:"fullTitle"`
	Title      string       `json:"title"`
	Challenger champDrawing `json:"challenger"`
	Champion   champDrawing `json:"champion"`
}

func parsePoints(s string) ([]render.Point, error) {
	var pts []render.Point
	for _, pair := range strings.Split(s, "|") {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("malformed point %q", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q: %w", pair, err)
		}
		pts = append(pts, render.Point{X: x, Y: y})
	}
	return pts, nil
}

func (d champDrawing) drawing() (render.Drawing, error) {
	out := render.Drawing{
		Width:      int(math.Ceil(d.Size.Width)),
		Height:     int(math.Ceil(d.Size.Height)),
		Background: "#FFFFFF",
	}
	for _, l := range d.Lines {
		pts, err := parsePoints(l.Points)
		if err != nil {
			return out, err
		}
		width := l.Thickness
		if len(pts) > 1 {
			width *= champLineScale
		}
		out.Strokes = append(out.Strokes, render.Stroke{Points: pts, Color: l.Color, Width: width})
	}
	return out, nil
}

func (d champDrawing) summary(title string) string {
	result := "`LOSER`"
	if d.VoteData.IsWinner {
		result = "`WINNER`"
	}
	return CleanString(strings.Join([]string{
		"*Name*: " + d.Name,
		"*Actual Title*: " + title,
		"*Artist*: " + d.Player.Name,
		"*Score*: " + d.Player.Score.String(),
		"*Result*: " + result,
	}, "\n"), false)
}

type worldChampions struct{ info }

func newWorldChampions() *worldChampions {
	return &worldChampions{info{key: "worldchampions", name: "Champ'd UP", code: "WorldChampionsGame"}}
}

func (a *worldChampions) Build(_ context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		Blob struct {
			Matchups []champMatchup `json:"matchups"`
		} `json:"blob"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, m := range data.Blob.Matchups {
		for _, d := range []champDrawing{m.Challenger, m.Champion} {
			drawing, err := d.drawing()
			if err != nil {
				return nil, fail(b, fmt.Errorf("%s: %w", d.Name, err))
			}
			dest := env.AssetPath(n, d.Player.Name+"-"+d.Name, "png")
			n++
			if err := env.Draw(b, drawing, dest); err != nil {
				return nil, fail(b, err)
			}

			text := "Stare at the art... " + d.Name
			b.QueueFile(dest, text, "", true)
			b.QueueChat(text, []domain.Block{domain.Section(d.summary(m.Title))}, true)
		}
	}
	return b, nil
}
