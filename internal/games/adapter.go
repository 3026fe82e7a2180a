// Package games turns a game's result payload into a message batch.
package games

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/jackbot/internal/artifact"
	"github.com/soyeahso/jackbot/internal/batch"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/fetch"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/render"
)

// maxFileStem caps the length of generated asset file names.
const maxFileStem = 80

// Adapter builds the message batch for one game type.
type Adapter interface {
	// Key is the registry name, e.g. "quiplash3".
	Key() string

	// Name is the display name used in the intro message.
	Name() string

	// Code is the artifact service short code, e.g. "quiplash3Game".
	Code() string

	// Format is the extension of service-generated assets ("gif" or "png"),
	// or "" for games whose drawings are rendered locally.
	Format() string

	// Build turns a result payload into a batch whose intro is first.
	// On error every file the adapter created has already been removed.
	Build(ctx context.Context, payload json.RawMessage, env *Env) (*batch.Batch, error)
}

// AssetFetcher downloads one asset to a local path.
type AssetFetcher interface {
	Fetch(ctx context.Context, ref fetch.AssetRef, dest string) (bool, error)
}

// Env is what an adapter needs to build a batch.
type Env struct {
	Fetcher  AssetFetcher
	Renderer render.Renderer
	URLs     artifact.URLs
	WorkDir  string
	Log      *logging.Logger
}

// AssetError means an asset could not be produced after all retries.
type AssetError struct {
	Asset string
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("failed to generate image for %s", e.Asset)
}

// info carries the static identity shared by every adapter.
type info struct {
	key    string
	name   string
	code   string
	format string
}

func (i info) Key() string    { return i.key }
func (i info) Name() string   { return i.name }
func (i info) Code() string   { return i.code }
func (i info) Format() string { return i.format }

// StartBatch returns a batch with the game's intro already queued.
func (e *Env) StartBatch(name string) (*batch.Batch, error) {
	b := batch.New(e.Log)
	gallery := e.URLs.Gallery()
	err := b.QueueIntro(gallery, []domain.Block{
		domain.Section("*" + name + "*"),
		domain.Context(gallery),
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AssetPath returns a unique local path for an asset. The index prefix keeps
// names unique when two titles clean to the same string.
func (e *Env) AssetPath(index int, name, ext string) string {
	return filepath.Join(e.WorkDir, fmt.Sprintf("%02d_%s.%s", index, fileStem(name), ext))
}

// FetchAsset downloads a service asset to dest and tracks it on b. In gif
// mode the service is first asked to generate asset index.
func (e *Env) FetchAsset(ctx context.Context, b *batch.Batch, index, asset, dest string) error {
	ref := fetch.AssetRef{URL: e.URLs.Asset(asset)}
	if e.URLs.Format() == "gif" {
		ref.GenerateURL = e.URLs.Generate(index)
	}

	b.Track(dest)
	ok, err := e.Fetcher.Fetch(ctx, ref, dest)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", asset, err)
	}
	if !ok {
		return &AssetError{Asset: asset}
	}
	return nil
}

// Draw renders d to path and tracks it on b.
func (e *Env) Draw(b *batch.Batch, d render.Drawing, path string) error {
	b.Track(path)
	e.Log.Info().Str("path", filepath.Base(path)).Msg("processing image")
	if err := e.Renderer.Render(d, path); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fail aborts b, removing its files, and returns err.
func fail(b *batch.Batch, err error) error {
	if b != nil {
		b.Abort(true)
	}
	return err
}

func decode(key string, payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s result: %w", key, err)
	}
	return nil
}

// fileStem makes a title safe to use as a file name.
func fileStem(name string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '<', '>', '|', '.', 0:
			return '-'
		}
		return r
	}, CleanString(name, true))
	if s == "" {
		s = "asset"
	}
	for utf8.RuneCountInString(s) > maxFileStem {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
