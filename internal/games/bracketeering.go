package games

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/soyeahso/jackbot/internal/batch"
)

type bracket struct {
	Content struct {
		Prompt struct {
			Text string `json:"text"`
		} `json:"prompt"`
	} `json:"content"`
	Matchups []json.RawMessage `json:"matchups"`
}

type bracketeering struct{ info }

func newBracketeering() *bracketeering {
	return &bracketeering{info{key: "brk", name: "Bracketeering", code: "BRKGame", format: "png"}}
}

// bracketKeys orders bracket numbers numerically, falling back to text order.
func bracketKeys(m map[string]bracket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai - bi
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return keys
}

func (a *bracketeering) Build(ctx context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error) {
	var data struct {
		BracketData map[string]bracket `json:"bracketData"`
	}
	if err := decode(a.key, payload, &data); err != nil {
		return nil, err
	}

	b, err := env.StartBatch(a.name)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, num := range bracketKeys(data.BracketData) {
		br := data.BracketData[num]
		for i := range br.Matchups {
			title := fmt.Sprintf("%s %d", br.Content.Prompt.Text, i)
			index := fmt.Sprintf("%s_%d", num, i)
			dest := env.AssetPath(n, title, a.format)
			n++
			if err := env.FetchAsset(ctx, b, index, fmt.Sprintf("image_%s.%s", index, a.format), dest); err != nil {
				return nil, fail(b, err)
			}
			b.QueueFile(dest, title, fmt.Sprintf("*%s*", title), true)
		}
	}
	return b, nil
}
