// Package fetch retrieves result payloads and assets from the artifact service.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/retry"
	"github.com/soyeahso/jackbot/internal/version"
)

// maxErrorBody caps how much of a failed response body is kept for logging.
const maxErrorBody = 512

// ErrNotFound matches a StatusError for HTTP 404.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the artifact service answers with a non-200 status.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad response from %s (%d): %s", e.URL, e.Status, e.Body)
}

// Is reports whether target is ErrNotFound and the status was 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// AssetRef locates one asset. When GenerateURL is set the service is asked
// to render the asset before it is downloaded from URL.
type AssetRef struct {
	URL         string
	GenerateURL string
}

// Options tunes a Fetcher.
type Options struct {
	MaxAttempts   int           // generate attempts per asset
	GenerateDelay time.Duration // pause after a failed generate call, grows geometrically
	Growth        float64
	Timeout       time.Duration
	Sleep         retry.SleepFunc
}

// Fetcher downloads result payloads and assets over HTTP.
type Fetcher struct {
	client *http.Client
	opts   Options
	log    *logging.Logger
}

// New creates a Fetcher. A nil client gets one with opts.Timeout.
func New(client *http.Client, opts Options, log *logging.Logger) *Fetcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	if opts.Growth < 1 {
		opts.Growth = 2
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, opts: opts, log: log.Sub("fetch")}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return string(b)
}

// FetchResult downloads and decodes the game's result payload.
func (f *Fetcher) FetchResult(ctx context.Context, url string) (json.RawMessage, error) {
	f.log.Info().Str("url", url).Msg("fetching game result")

	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to parse response from %s: invalid JSON", url)
	}
	return json.RawMessage(body), nil
}

// Fetch downloads ref to dest. It returns false without error when the
// service could not produce the asset; errors are reserved for transport
// and filesystem failures.
func (f *Fetcher) Fetch(ctx context.Context, ref AssetRef, dest string) (bool, error) {
	if ref.GenerateURL != "" {
		ok, err := f.generate(ctx, ref.GenerateURL)
		if err != nil || !ok {
			return false, err
		}
	}

	f.log.Info().Str("url", ref.URL).Msg("getting asset")
	resp, err := f.get(ctx, ref.URL)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.log.Error().
			Str("url", ref.URL).
			Int("status", resp.StatusCode).
			Str("body", readErrorBody(resp.Body)).
			Msg("problem getting asset")
		return false, nil
	}

	if err := writeAtomic(dest, resp.Body); err != nil {
		return false, err
	}
	return true, nil
}

// generate calls the generate endpoint until it answers 200 or the attempt
// budget is spent.
func (f *Fetcher) generate(ctx context.Context, url string) (bool, error) {
	state := retry.New(f.opts.MaxAttempts, f.opts.GenerateDelay, f.opts.Growth)
	for {
		f.log.Info().Str("url", url).Msg("generating asset")
		resp, err := f.get(ctx, url)
		if err != nil {
			return false, err
		}
		status := resp.StatusCode
		body := readErrorBody(resp.Body)
		resp.Body.Close()

		if status == http.StatusOK {
			return true, nil
		}

		f.log.Error().
			Str("url", url).
			Int("status", status).
			Str("body", body).
			Msgf("problem generating asset, attempt %d / %d", state.Attempt+1, state.MaxAttempts)

		wait, ok := state.Next(0)
		if !ok {
			return false, nil
		}
		if err := f.opts.Sleep(ctx, wait); err != nil {
			return false, err
		}
	}
}

// writeAtomic streams r into a temp file beside dest and renames it into place.
func writeAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s: %w", dest, err)
	}
	return nil
}
