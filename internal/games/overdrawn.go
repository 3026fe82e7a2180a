package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/soyeahso/jackbot/internal/batch"
)

type overdrawnRound struct {
	TitleVotes *struct {
		WinningTitle string `json:"winningTitle"`
	} `json:"titleVotes"`
	ArtQuestion *struct {
		DisplayText string `json:"displayText"`
	} `json:"artQuestion"`
}

// title prefers the voted title over the original prompt.
func (r overdrawnRound) title() string {
	if r.TitleVotes != nil && r.TitleVotes.WinningTitle != "" {
		return r.TitleVotes.WinningTitle
	}
	if r.ArtQuestion != nil && r.ArtQuestion.DisplayText != "" {
		return r.ArtQuestion.DisplayText
	}
	return "UNDEFINED"
}

type overdrawn struct{ info }

func newOverdrawn() *overdrawn {
	return &overdrawn{info{key: "overdrawn", name: "Civic Doodle", code: "OverdrawnGame", format: "gif"}}
}

func (a *overdrawn) Build(ctx context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		Rounds []overdrawnRound `json:"rounds"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	for i, round := range data.Rounds {
		title := round.title()
		dest := env.AssetPath(i, title, a.format)
		if err := env.FetchAsset(ctx, b, strconv.Itoa(i), fmt.Sprintf("anim_%d.%s", i, a.format), dest); err != nil {
			return nil, fail(b, err)
		}
		b.QueueFile(dest, title, fmt.Sprintf("*%s*", title), true)
	}
	return b, nil
}
