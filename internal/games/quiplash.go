package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/soyeahso/jackbot/internal/batch"
)

type quip struct {
	Player   player      `json:"player"`
	Answer   string      `json:"answer"`
	Percent  json.Number `json:"percent"`
	Quiplash bool        `json:"quiplash"`
}

type matchup struct {
	Question struct {
		Prompt string `json:"prompt"`
	} `json:"question"`
	Left  quip `json:"left"`
	Right quip `json:"right"`
}

// caption lists both answers with their vote share.
func (m matchup) caption() string {
	lines := []string{fmt.Sprintf("*%s*", m.Question.Prompt)}
	for _, q := range []quip{m.Left, m.Right} {
		lines = append(lines, fmt.Sprintf("*%s*: _%s_ (%s%%)", q.Player.Name, q.Answer, q.Percent))
	}
	if m.Left.Quiplash || m.Right.Quiplash {
		lines = append(lines, "`QUIPLASH!`")
	}
	return strings.Join(lines, "\n")
}

// quiplash covers both Quiplash releases; they differ only in where the
// matchups live in the payload.
type quiplash struct {
	info
	nested bool
}

func newQuiplash2() *quiplash {
	return &quiplash{info: info{key: "quiplash2", name: "Quiplash 2", code: "Quiplash2Game", format: "gif"}}
}

func newQuiplash3() *quiplash {
	return &quiplash{info: info{key: "quiplash3", name: "Quiplash 3", code: "quiplash3Game", format: "gif"}, nested: true}
}

func (a *quiplash) matchups(payload json.RawMessage) ([]matchup, error) {
	if a.nested {
		var data struct {
			Blob struct {
				Matchups []matchup `json:"matchups"`
			} `json:"blob"`
		}
		err := decode(a.key, payload, &data)
		return data.Blob.Matchups, err
	}
	var data struct {
		Matchups []matchup `json:"matchups"`
	}
	err := decode(a.key, payload, &data)
	return data.Matchups, err
}

func (a *quiplash) Build(ctx context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	matchups, err := a.matchups(payload)
	if err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	for i, m := range matchups {
		dest := env.AssetPath(i, m.Question.Prompt, a.format)
		asset := fmt.Sprintf("anim_%d.%s", i, a.format)
		if err := env.FetchAsset(ctx, b, strconv.Itoa(i), asset, dest); err != nil {
			return nil, fail(b, err)
		}
		b.QueueFile(dest, m.Question.Prompt, m.caption(), true)
	}
	return b, nil
}
