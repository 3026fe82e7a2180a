package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/jackbot/internal/batch"
)

const (
	shirtSize  = 300
	shirtTitle = "Stare at the art..."
)

type shirt struct {
	Slogan struct {
		Slogan string `json:"slogan"`
		Author player `json:"author"`
	} `json:"slogan"`
	Designer player      `json:"designer"`
	Wins     json.Number `json:"wins"`
	Drawing  struct {
		Background string  `json:"background"`
		Lines      []line  `json:"lines"`
		Artist     *player `json:"artist"`
	} `json:"drawing"`
}

func (s shirt) caption() string {
	artist := "None"
	if s.Drawing.Artist != nil {
		artist = s.Drawing.Artist.Name
	}
	return strings.Join([]string{
		fmt.Sprintf("*Artist*: _%s_", artist),
		fmt.Sprintf("*Author*: _%s_", s.Slogan.Author.Name),
		fmt.Sprintf("*Designer*: _%s_", s.Designer.Name),
		fmt.Sprintf("*Wins*: _%s_", s.Wins),
		fmt.Sprintf("\n`%s`", s.Slogan.Slogan),
	}, "\n")
}

// teeKO renders each shirt design locally.
type teeKO struct{ info }

func newTeeKO(key, name, code string) *teeKO {
	return &teeKO{info{key: key, name: name, code: code}}
}

func (a *teeKO) Build(_ context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		Shirts []shirt `json:"shirts"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	for i, s := range data.Shirts {
		dest := env.AssetPath(i, s.Slogan.Slogan, "png")
		d := toDrawing(shirtSize, shirtSize, s.Drawing.Background, s.Drawing.Lines)
		if err := env.Draw(b, d, dest); err != nil {
			return nil, fail(b, err)
		}
		b.QueueFile(dest, shirtTitle, s.caption(), true)
	}
	return b, nil
}
