package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlack is a minimal Web API stub that records form values per method.
type fakeSlack struct {
	mu       sync.Mutex
	url      string
	requests map[string][]map[string]string
	handlers map[string]http.HandlerFunc
}

func newFakeSlack(t *testing.T) (*fakeSlack, *Client) {
	t.Helper()
	f := &fakeSlack{
		requests: make(map[string][]map[string]string),
		handlers: make(map[string]http.HandlerFunc),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	f.url = srv.URL

	c := New(Options{Token: "xoxb-test", APIURL: srv.URL + "/api"}, logging.New(io.Discard, "silent"))
	return f, c
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := filepath.Base(r.URL.Path)
	values := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		_ = r.ParseForm()
		for k := range r.PostForm {
			values[k] = r.PostForm.Get(k)
		}
	}
	f.mu.Lock()
	f.requests[method] = append(f.requests[method], values)
	h := f.handlers[method]
	f.mu.Unlock()

	if h == nil {
		writeJSON(w, map[string]any{"ok": false, "error": "unknown_method"})
		return
	}
	h(w, r)
}

func (f *fakeSlack) handle(method string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeSlack) calls(method string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func reply(v map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, v) }
}

func TestListChannels(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("conversations.list", reply(map[string]any{
		"ok": true,
		"channels": []map[string]any{
			{"id": "C111111111", "name": "general"},
			{"id": "C222222222", "name": "jackbox"},
		},
		"response_metadata": map[string]any{"next_cursor": "abc"},
	}))

	page, err := c.ListChannels(context.Background(), "prev", 200)
	require.NoError(t, err)
	assert.Equal(t, "abc", page.NextCursor)
	assert.Equal(t, []domain.ChannelInfo{
		{ID: "C111111111", Name: "general"},
		{ID: "C222222222", Name: "jackbox"},
	}, page.Channels)

	req := f.calls("conversations.list")[0]
	assert.Equal(t, "prev", req["cursor"])
	assert.Equal(t, "200", req["limit"])
	assert.Equal(t, "public_channel,private_channel", req["types"])
}

func TestListChannelsRateLimitedHeader(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("conversations.list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ListChannels(context.Background(), "", 200)
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
}

func TestListChannelsRateLimitedBody(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("conversations.list", reply(map[string]any{"ok": false, "error": "ratelimited"}))

	_, err := c.ListChannels(context.Background(), "", 200)
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Zero(t, rl.RetryAfter)
}

func TestListChannelsOtherError(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("conversations.list", reply(map[string]any{"ok": false, "error": "invalid_auth"}))

	_, err := c.ListChannels(context.Background(), "", 200)
	require.Error(t, err)
	var rl *domain.RateLimitError
	assert.False(t, errors.As(err, &rl))
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestPostMessage(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("chat.postMessage", reply(map[string]any{"ok": true, "channel": "C222222222", "ts": "1700000000.000100"}))

	blocks := []domain.Block{domain.Section("*Quiplash 3*"), domain.Context("http://gallery")}
	ts, err := c.PostMessage(context.Background(), "C222222222", "http://gallery", blocks, "")
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000100", ts)

	req := f.calls("chat.postMessage")[0]
	assert.Equal(t, "C222222222", req["channel"])
	assert.Equal(t, "http://gallery", req["text"])
	assert.Empty(t, req["thread_ts"])

	var sent []map[string]any
	require.NoError(t, json.Unmarshal([]byte(req["blocks"]), &sent))
	require.Len(t, sent, 2)
	assert.Equal(t, "section", sent[0]["type"])
	assert.Equal(t, "context", sent[1]["type"])
}

func TestPostMessageThreaded(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("chat.postMessage", reply(map[string]any{"ok": true, "channel": "C1", "ts": "2.0"}))

	_, err := c.PostMessage(context.Background(), "C1", "reply", nil, "1.0")
	require.NoError(t, err)

	req := f.calls("chat.postMessage")[0]
	assert.Equal(t, "1.0", req["thread_ts"])
	assert.Empty(t, req["blocks"])
}

func TestUploadFile(t *testing.T) {
	f, c := newFakeSlack(t)

	var uploaded []byte
	f.handle("upload", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err == nil {
			uploaded, _ = io.ReadAll(file)
		}
		w.WriteHeader(http.StatusOK)
	})
	f.handle("files.getUploadURLExternal", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "upload_url": f.url + "/upload", "file_id": "F123"})
	})
	f.handle("files.completeUploadExternal", reply(map[string]any{
		"ok": true, "files": []map[string]any{{"id": "F123", "title": "Prompt"}},
	}))

	path := filepath.Join(t.TempDir(), "00_Prompt.gif")
	require.NoError(t, os.WriteFile(path, []byte("GIF89a"), 0o600))

	err := c.UploadFile(context.Background(), "C222222222",
		domain.FileUpload{Path: path, Title: "Prompt", Caption: "*Prompt*"}, "1700000000.000100")
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(uploaded))

	get := f.calls("files.getUploadURLExternal")[0]
	assert.Equal(t, "00_Prompt.gif", get["filename"])
	assert.Equal(t, "6", get["length"])

	done := f.calls("files.completeUploadExternal")[0]
	assert.Equal(t, "C222222222", done["channel_id"])
	assert.Equal(t, "*Prompt*", done["initial_comment"])
	assert.Equal(t, "1700000000.000100", done["thread_ts"])
}

func TestUploadFileMissing(t *testing.T) {
	_, c := newFakeSlack(t)
	err := c.UploadFile(context.Background(), "C1", domain.FileUpload{Path: "/nonexistent.gif"}, "")
	assert.Error(t, err)
}

func TestRecentMessagesAndAuth(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("auth.test", reply(map[string]any{"ok": true, "user_id": "U0BOT"}))
	f.handle("conversations.history", reply(map[string]any{
		"ok": true,
		"messages": []map[string]any{
			{"ts": "1700000000.000200", "text": "hello", "user": "U0BOT", "files": []map[string]any{{"id": "F1"}}},
			{"ts": "1700000000.000100", "text": "other", "user": "U0HUMAN"},
		},
	}))

	uid, err := c.AuthUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "U0BOT", uid)

	msgs, err := c.RecentMessages(context.Background(), "C1", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "U0BOT", msgs[0].UserID)
	assert.True(t, msgs[0].HasFiles)
	assert.False(t, msgs[1].HasFiles)
	assert.Equal(t, int64(1700000000), msgs[0].Time.Unix())
	assert.Equal(t, "50", f.calls("conversations.history")[0]["limit"])
}

func TestDeleteMessage(t *testing.T) {
	f, c := newFakeSlack(t)
	f.handle("chat.delete", reply(map[string]any{"ok": true, "channel": "C1", "ts": "1.0"}))

	require.NoError(t, c.DeleteMessage(context.Background(), "C1", "1.0"))
	req := f.calls("chat.delete")[0]
	assert.Equal(t, "C1", req["channel"])
	assert.Equal(t, "1.0", req["ts"])

	f.handle("chat.delete", reply(map[string]any{"ok": false, "error": "cant_delete_message"}))
	err := c.DeleteMessage(context.Background(), "C1", "2.0")
	assert.ErrorContains(t, err, "cant_delete_message")
}

func TestParseTimestamp(t *testing.T) {
	ts := parseTimestamp("1700000000.000123")
	assert.Equal(t, int64(1700000000), ts.Unix())
	assert.Equal(t, 123*time.Microsecond, time.Duration(ts.Nanosecond()))
	assert.True(t, parseTimestamp("garbage").IsZero())
}
