package games

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/jackbot/internal/batch"
)

type rangePrompt struct {
	ID        flexID `json:"id"`
	RangeType struct {
		Values []struct {
			GuessingText string `json:"guessingText"`
		} `json:"values"`
	} `json:"rangeType"`
}

type rangeResponse struct {
	AuthorSessionID  flexID `json:"authorSessionId"`
	PromptID         flexID `json:"promptId"`
	TargetValueIndex int    `json:"targetValueIndex"`
}

type rangeRound struct {
	Index     int             `json:"index"`
	Prompts   []rangePrompt   `json:"prompts"`
	Responses []rangeResponse `json:"responses"`
}

type rangePlayer struct {
	SessionID flexID `json:"sessionId"`
	Name      string `json:"name"`
}

// rangeGame handles Nonsensory, whose artifact code carries a doubled suffix.
type rangeGame struct{ info }

func newRange() *rangeGame {
	return &rangeGame{info{key: "range", name: "Nonsensory", code: "RangeGameGame", format: "png"}}
}

func (a *rangeGame) Build(ctx context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		Blob struct {
			Players   []rangePlayer `json:"players"`
			RoundData []rangeRound  `json:"roundData"`
		} `json:"blob"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	players := make(map[flexID]string, len(data.Blob.Players))
	for _, p := range data.Blob.Players {
		players[p.SessionID] = p.Name
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, round := range data.Blob.RoundData {
		prompts := make(map[flexID]rangePrompt, len(round.Prompts))
		for _, p := range round.Prompts {
			prompts[p.ID] = p
		}

		for i, resp := range round.Responses {
			name := fmt.Sprintf("round_%d_%d", round.Index, i)

			author, ok := players[resp.AuthorSessionID]
			if !ok {
				return nil, fail(b, fmt.Errorf("%s: unknown player %q", name, resp.AuthorSessionID))
			}
			prompt, ok := prompts[resp.PromptID]
			if !ok {
				return nil, fail(b, fmt.Errorf("%s: unknown prompt %q", name, resp.PromptID))
			}
			values := prompt.RangeType.Values
			if resp.TargetValueIndex < 0 || resp.TargetValueIndex >= len(values) {
				return nil, fail(b, fmt.Errorf("%s: target value %d out of range", name, resp.TargetValueIndex))
			}

			dest := env.AssetPath(n, name, a.format)
			n++
			if err := env.FetchAsset(ctx, b, name, name+"."+a.format, dest); err != nil {
				return nil, fail(b, err)
			}
			b.QueueFile(dest,
				"Brought to you by: "+author,
				"Prompt text: "+values[resp.TargetValueIndex].GuessingText,
				true)
		}
	}
	return b, nil
}
