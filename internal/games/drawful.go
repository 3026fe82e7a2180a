package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/jackbot/internal/batch"
)

const (
	drawfulWidth  = 240
	drawfulHeight = 320
)

type portrait struct {
	Player player `json:"player"`
	Lines  []line `json:"lines"`
}

type lie struct {
	Player player `json:"player"`
	Text   string `json:"text"`
}

type drawfulDrawing struct {
	Player player `json:"player"`
	Title  struct {
		Text string `json:"text"`
	} `json:"title"`
	Lines []line `json:"lines"`
	Lies  *[]lie `json:"lies"`
}

// caption lists the fake titles players submitted. It is empty when the
// payload carries no lies.
func (d drawfulDrawing) caption() string {
	if d.Lies == nil {
		return ""
	}
	lines := []string{fmt.Sprintf("*Actual Title*: `%s`\n*Artist*: _%s_\n", d.Title.Text, d.Player.Name)}
	for _, l := range *d.Lies {
		lines = append(lines, fmt.Sprintf("*%s*:\t`%s`", l.Player.Name, l.Text))
	}
	return strings.Join(lines, "\n")
}

type drawful struct{ info }

func newDrawful() *drawful {
	return &drawful{info{key: "drawful", name: "Drawful", code: "DrawfulGame"}}
}

func (a *drawful) Build(_ context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		PlayerPortraits []portrait       `json:"playerPortraits"`
		Drawings        []drawfulDrawing `json:"drawings"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, p := range data.PlayerPortraits {
		dest := env.AssetPath(n, p.Player.Name, "png")
		n++
		if err := env.Draw(b, toDrawing(drawfulWidth, drawfulHeight, "", p.Lines), dest); err != nil {
			return nil, fail(b, err)
		}
		b.QueueFile(dest, p.Player.Name, "", true)
	}
	for _, d := range data.Drawings {
		dest := env.AssetPath(n, d.Player.Name+"-"+d.Title.Text, "png")
		n++
		if err := env.Draw(b, toDrawing(drawfulWidth, drawfulHeight, "", d.Lines), dest); err != nil {
			return nil, fail(b, err)
		}
		b.QueueFile(dest, d.Title.Text, d.caption(), true)
	}
	return b, nil
}
