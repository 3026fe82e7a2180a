package games

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/jackbot/internal/artifact"
	"github.com/soyeahso/jackbot/internal/batch"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/fetch"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher writes a small file for every asset except those named in missing.
type fakeFetcher struct {
	refs    []fetch.AssetRef
	missing map[string]bool
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, ref fetch.AssetRef, dest string) (bool, error) {
	f.refs = append(f.refs, ref)
	if f.err != nil {
		return false, f.err
	}
	if f.missing[filepath.Base(ref.URL)] {
		return false, nil
	}
	return true, os.WriteFile(dest, []byte("asset"), 0o600)
}

type fakeRenderer struct {
	drawings []render.Drawing
	failOn   int // 1-based render call that fails, 0 never
}

func (r *fakeRenderer) Render(d render.Drawing, path string) error {
	r.drawings = append(r.drawings, d)
	if r.failOn > 0 && len(r.drawings) == r.failOn {
		return errors.New("disk full")
	}
	return os.WriteFile(path, []byte("png"), 0o600)
}

var testEndpoints = artifact.Endpoints{
	Fishery: "https://fishery.test/artifact",
	Gallery: "http://gallery.test/artifact",
	Blob:    "https://blob.test",
}

func newEnv(t *testing.T, a Adapter, f *fakeFetcher, r *fakeRenderer) *Env {
	t.Helper()
	if f == nil {
		f = &fakeFetcher{}
	}
	if r == nil {
		r = &fakeRenderer{}
	}
	return &Env{
		Fetcher:  f,
		Renderer: r,
		URLs:     artifact.New(testEndpoints, a.Code(), "g1", a.Format()),
		WorkDir:  t.TempDir(),
		Log:      logging.New(io.Discard, "silent"),
	}
}

func lookup(t *testing.T, key string) Adapter {
	t.Helper()
	a, err := DefaultRegistry().Lookup(key)
	require.NoError(t, err)
	return a
}

func files(intents []domain.MessageIntent) []*domain.FileUpload {
	var out []*domain.FileUpload
	for _, in := range intents {
		if in.Kind == domain.IntentFile {
			out = append(out, in.File)
		}
	}
	return out
}

func assertIntro(t *testing.T, b *batch.Batch, name, code string) {
	t.Helper()
	intents := b.Intents()
	require.NotEmpty(t, intents)
	intro := intents[0]
	require.Equal(t, domain.IntentIntro, intro.Kind)
	gallery := "http://gallery.test/artifact/" + code + "/g1"
	assert.Equal(t, gallery, intro.Intro.Text)
	assert.Equal(t, []domain.Block{domain.Section("*" + name + "*"), domain.Context(gallery)}, intro.Intro.Blocks)
	for _, in := range intents[1:] {
		assert.NotEqual(t, domain.IntentIntro, in.Kind)
		assert.True(t, in.Threaded())
	}
}

const quiplash3Payload = `{"blob":{"matchups":[
  {"question":{"prompt":"Worst pizza topping"},
   "left":{"player":{"name":"ann"},"answer":"glue","percent":67,"quiplash":false},
   "right":{"player":{"name":"bob"},"answer":"regret","percent":33,"quiplash":false}},
  {"question":{"prompt":"Worst pizza topping"},
   "left":{"player":{"name":"cat"},"answer":"soup","percent":100,"quiplash":true},
   "right":{"player":{"name":"dan"},"answer":"nothing","percent":0,"quiplash":false}}
]}}`

func TestQuiplash3Build(t *testing.T) {
	a := lookup(t, "quiplash3")
	f := &fakeFetcher{}
	env := newEnv(t, a, f, nil)

	b, err := a.Build(context.Background(), json.RawMessage(quiplash3Payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Quiplash 3", "quiplash3Game")

	uploads := files(b.Intents())
	require.Len(t, uploads, 2)
	assert.Equal(t, "Worst pizza topping", uploads[0].Title)
	assert.Equal(t, "*Worst pizza topping*\n*ann*: _glue_ (67%)\n*bob*: _regret_ (33%)", uploads[0].Caption)
	assert.Equal(t, "*Worst pizza topping*\n*cat*: _soup_ (100%)\n*dan*: _nothing_ (0%)\n`QUIPLASH!`", uploads[1].Caption)

	// Same prompt twice still yields distinct files.
	assert.NotEqual(t, uploads[0].Path, uploads[1].Path)
	assert.FileExists(t, uploads[0].Path)
	assert.ElementsMatch(t, []string{uploads[0].Path, uploads[1].Path}, b.Tracked())

	require.Len(t, f.refs, 2)
	assert.Equal(t, "https://blob.test/quiplash3Game/g1/anim_1.gif", f.refs[1].URL)
	assert.Equal(t, "https://fishery.test/artifact/gif/quiplash3Game/g1/1", f.refs[1].GenerateURL)
}

func TestQuiplash2TopLevelMatchups(t *testing.T) {
	a := lookup(t, "Quiplash2")
	env := newEnv(t, a, nil, nil)

	payload := `{"matchups":[{"question":{"prompt":"A"},"left":{"player":{"name":"x"},"answer":"1","percent":50.5},"right":{"player":{"name":"y"},"answer":"2","percent":49.5}}]}`
	b, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Quiplash 2", "Quiplash2Game")

	uploads := files(b.Intents())
	require.Len(t, uploads, 1)
	assert.Equal(t, "*A*\n*x*: _1_ (50.5%)\n*y*: _2_ (49.5%)", uploads[0].Caption)
}

func TestAssetFailureAbortsBatch(t *testing.T) {
	a := lookup(t, "quiplash3")
	f := &fakeFetcher{missing: map[string]bool{"anim_1.gif": true}}
	env := newEnv(t, a, f, nil)

	b, err := a.Build(context.Background(), json.RawMessage(quiplash3Payload), env)
	require.Error(t, err)
	assert.Nil(t, b)

	var ae *AssetError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "anim_1.gif", ae.Asset)

	// The first asset was downloaded, then removed by the abort.
	entries, err := os.ReadDir(env.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransportErrorAbortsBatch(t *testing.T) {
	a := lookup(t, "quiplash3")
	env := newEnv(t, a, &fakeFetcher{err: context.Canceled}, nil)

	_, err := a.Build(context.Background(), json.RawMessage(quiplash3Payload), env)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBracketeeringBuild(t *testing.T) {
	a := lookup(t, "bracketeering")
	f := &fakeFetcher{}
	env := newEnv(t, a, f, nil)

	payload := `{"bracketData":{
	  "10":{"content":{"prompt":{"text":"Late"}},"matchups":[{}]},
	  "2":{"content":{"prompt":{"text":"Best snack"}},"matchups":[{},{}]}
	}}`
	b, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Bracketeering", "BRKGame")

	uploads := files(b.Intents())
	require.Len(t, uploads, 3)
	assert.Equal(t, "Best snack 0", uploads[0].Title)
	assert.Equal(t, "*Best snack 1*", uploads[1].Caption)
	assert.Equal(t, "Late 0", uploads[2].Title)

	require.Len(t, f.refs, 3)
	assert.Equal(t, "https://blob.test/BRKGame/g1/image_2_0.png", f.refs[0].URL)
	assert.Empty(t, f.refs[0].GenerateURL)
	assert.Equal(t, "https://blob.test/BRKGame/g1/image_10_0.png", f.refs[2].URL)
}

func TestOverdrawnTitles(t *testing.T) {
	a := lookup(t, "civic doodle")
	assert.Equal(t, "overdrawn", a.Key())
	env := newEnv(t, a, nil, nil)

	payload := `{"rounds":[
	  {"titleVotes":{"winningTitle":"Winner"},"artQuestion":{"displayText":"Prompt"}},
	  {"artQuestion":{"displayText":"Prompt only"}},
	  {}
	]}`
	b, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Civic Doodle", "OverdrawnGame")

	uploads := files(b.Intents())
	require.Len(t, uploads, 3)
	assert.Equal(t, "Winner", uploads[0].Title)
	assert.Equal(t, "*Prompt only*", uploads[1].Caption)
	assert.Equal(t, "UNDEFINED", uploads[2].Title)
}

const teekoPayload = `{"shirts":[
  {"slogan":{"slogan":"Cats rule","author":{"name":"ann"}},"designer":{"name":"bob"},"wins":3,
   "drawing":{"background":"#112233","artist":{"name":"cat"},
     "lines":[{"points":[{"x":1,"y":2},{"x":3,"y":4}],"color":"#000000","thickness":4},
              {"points":[{"x":9,"y":9}],"color":"#FF0000","thickness":1}]}},
  {"slogan":{"slogan":"Dogs drool","author":{"name":"dan"}},"designer":{"name":"eve"},"wins":0,
   "drawing":{"background":"#FFFFFF","artist":null,"lines":[]}}
]}`

func TestTeeKOBuild(t *testing.T) {
	for _, key := range []string{"teeko", "teeko2"} {
		t.Run(key, func(t *testing.T) {
			a := lookup(t, key)
			r := &fakeRenderer{}
			env := newEnv(t, a, nil, r)

			b, err := a.Build(context.Background(), json.RawMessage(teekoPayload), env)
			require.NoError(t, err)
			assertIntro(t, b, a.Name(), a.Code())

			uploads := files(b.Intents())
			require.Len(t, uploads, 2)
			assert.Equal(t, "Stare at the art...", uploads[0].Title)
			assert.Equal(t, "*Artist*: _cat_\n*Author*: _ann_\n*Designer*: _bob_\n*Wins*: _3_\n\n`Cats rule`", uploads[0].Caption)
			assert.True(t, strings.HasPrefix(uploads[1].Caption, "*Artist*: _None_\n"))

			require.Len(t, r.drawings, 2)
			d := r.drawings[0]
			assert.Equal(t, 300, d.Width)
			assert.Equal(t, 300, d.Height)
			assert.Equal(t, "#112233", d.Background)
			require.Len(t, d.Strokes, 2)
			assert.Equal(t, 4.0, d.Strokes[0].Width)
			assert.Equal(t, []render.Point{{X: 9, Y: 9}}, d.Strokes[1].Points)
		})
	}
}

func TestTeeKORenderFailureCleansUp(t *testing.T) {
	a := lookup(t, "teeko2")
	env := newEnv(t, a, nil, &fakeRenderer{failOn: 2})

	_, err := a.Build(context.Background(), json.RawMessage(teekoPayload), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	entries, err := os.ReadDir(env.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDrawfulBuild(t *testing.T) {
	a := lookup(t, "drawful")
	r := &fakeRenderer{}
	env := newEnv(t, a, nil, r)

	payload := `{
	  "playerPortraits":[{"player":{"name":"ann"},"lines":[{"points":[{"x":1,"y":1}],"color":"#000","thickness":2}]}],
	  "drawings":[
	    {"player":{"name":"bob"},"title":{"text":"a sad moon"},"lines":[],
	     "lies":[{"player":{"name":"ann"},"text":"cheese"},{"player":{"name":"cat"},"text":"ball"}]},
	    {"player":{"name":"cat"},"title":{"text":"no lies"},"lines":[]}
	  ]}`
	b, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Drawful", "DrawfulGame")

	uploads := files(b.Intents())
	require.Len(t, uploads, 3)
	assert.Equal(t, "ann", uploads[0].Title)
	assert.Empty(t, uploads[0].Caption)
	assert.Equal(t, "a sad moon", uploads[1].Title)
	assert.Equal(t, "*Actual Title*: `a sad moon`\n*Artist*: _bob_\n\n*ann*:\t`cheese`\n*cat*:\t`ball`", uploads[1].Caption)
	assert.Empty(t, uploads[2].Caption)

	require.Len(t, r.drawings, 3)
	assert.Equal(t, 240, r.drawings[0].Width)
	assert.Equal(t, 320, r.drawings[0].Height)
	assert.Empty(t, r.drawings[0].Background)
}

func TestWorldChampionsBuild(t *testing.T) {
	a := lookup(t, "worldchampions")
	r := &fakeRenderer{}
	env := newEnv(t, a, nil, r)

	payload := `{"blob":{"matchups":[{"fullTitle":"The Champion of Naps","title":"Naps",
	  "challenger":{"name":"Snoozer","player":{"name":"ann","score":1200},"voteData":{"isWinner":false},
	    "size":{"width":400,"height":500},
	    "lines":[{"points":"1,2|3,4|5,6","color":"#111111","thickness":2},{"points":"7,8","color":"#222222","thickness":2}]},
	  "champion":{"name":"Dozer_Max","player":{"name":"bob","score":1500},"voteData":{"isWinner":true},
	    "size":{"width":400,"height":500},"lines":[]}
	}]}}`
	b, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Champ'd UP", "WorldChampionsGame")

	intents := b.Intents()[1:]
	require.Len(t, intents, 4)
	assert.Equal(t, domain.IntentFile, intents[0].Kind)
	assert.Equal(t, "Stare at the art... Snoozer", intents[0].File.Title)
	assert.Equal(t, domain.IntentChat, intents[1].Kind)
	assert.Equal(t, "Stare at the art... Snoozer", intents[1].Chat.Text)
	assert.Equal(t, []domain.Block{domain.Section(
		"*Name*: Snoozer\n*Actual Title*: Naps\n*Artist*: ann\n*Score*: 1200\n*Result*: `LOSER`",
	)}, intents[1].Chat.Blocks)
	assert.Contains(t, intents[3].Chat.Blocks[0].Text, "*Name*: DozerMax")
	assert.Contains(t, intents[3].Chat.Blocks[0].Text, "`WINNER`")

	require.Len(t, r.drawings, 2)
	d := r.drawings[0]
	assert.Equal(t, 400, d.Width)
	assert.Equal(t, 500, d.Height)
	assert.Equal(t, "#FFFFFF", d.Background)
	require.Len(t, d.Strokes, 2)
	assert.Equal(t, 10.0, d.Strokes[0].Width)
	assert.Len(t, d.Strokes[0].Points, 3)
	assert.Equal(t, 2.0, d.Strokes[1].Width)
}

func TestWorldChampionsMalformedPoints(t *testing.T) {
	a := lookup(t, "worldchampions")
	env := newEnv(t, a, nil, nil)

	payload := `{"blob":{"matchups":[{"title":"x","challenger":{"name":"a","size":{"width":1,"height":1},"lines":[{"points":"oops"}]},"champion":{}}]}}`
	_, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed point")
}

const rangePayload = `{"blob":{
  "players":[{"sessionId":1,"name":"ann"},{"sessionId":"2","name":"bob"}],
  "roundData":[{"index":0,
    "prompts":[{"id":"p1","rangeType":{"values":[{"guessingText":"cold"},{"guessingText":"hot"}]}}],
    "responses":[{"authorSessionId":1,"promptId":"p1","targetValueIndex":1},
                 {"authorSessionId":"2","promptId":"p1","targetValueIndex":0}]}]
}}`

func TestRangeBuild(t *testing.T) {
	a := lookup(t, "nonsensory")
	f := &fakeFetcher{}
	env := newEnv(t, a, f, nil)

	b, err := a.Build(context.Background(), json.RawMessage(rangePayload), env)
	require.NoError(t, err)
	assertIntro(t, b, "Nonsensory", "RangeGameGame")

	uploads := files(b.Intents())
	require.Len(t, uploads, 2)
	assert.Equal(t, "Brought to you by: ann", uploads[0].Title)
	assert.Equal(t, "Prompt text: hot", uploads[0].Caption)
	assert.Equal(t, "Brought to you by: bob", uploads[1].Title)
	assert.Equal(t, "Prompt text: cold", uploads[1].Caption)

	require.Len(t, f.refs, 2)
	assert.Equal(t, "https://blob.test/RangeGameGame/g1/round_0_1.png", f.refs[1].URL)
	assert.Empty(t, f.refs[1].GenerateURL)
}

func TestRangeUnknownPlayer(t *testing.T) {
	a := lookup(t, "range")
	env := newEnv(t, a, nil, nil)

	payload := strings.Replace(rangePayload, `"authorSessionId":"2"`, `"authorSessionId":"9"`, 1)
	_, err := a.Build(context.Background(), json.RawMessage(payload), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown player")

	entries, err := os.ReadDir(env.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildInvalidPayload(t *testing.T) {
	for _, a := range DefaultRegistry().List() {
		t.Run(a.Key(), func(t *testing.T) {
			_, err := a.Build(context.Background(), json.RawMessage(`[1,2,3]`), newEnv(t, a, nil, nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decode "+a.Key())
		})
	}
}
