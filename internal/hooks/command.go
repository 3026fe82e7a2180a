package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/soyeahso/jackbot/internal/config"
)

// DefaultCommandTimeout bounds a hook command when its entry sets no timeout.
const DefaultCommandTimeout = 10 * time.Second

// CommandHandler returns a Handler that runs entry.Command through the
// shell with the JSON-encoded payload on stdin.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := shellCommand(ctx, entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.WaitDelay = time.Second
		cmd.Env = append(cmd.Environ(), "JACKBOT_EVENT="+p.Event)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("hook %q timed out after %s", entry.Command, timeout)
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return fmt.Errorf("hook %q exited %d: %s", entry.Command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
			}
			return fmt.Errorf("hook %q: %w", entry.Command, err)
		}
		return nil
	}
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// RegisterConfig wires every configured hook command to its event.
func RegisterConfig(m *Manager, cfg config.HooksConfig) {
	register := func(event string, entries []config.HookEntry) {
		for i, entry := range entries {
			if strings.TrimSpace(entry.Command) == "" {
				continue
			}
			m.On(event, fmt.Sprintf("config:%s[%d]", event, i), CommandHandler(entry))
		}
	}

	register(EventGameFetched, cfg.GameFetched)
	register(EventBatchDispatched, cfg.BatchDispatched)
	register(EventBatchFailed, cfg.BatchFailed)
	register(EventBatchAborted, cfg.BatchAborted)
}
