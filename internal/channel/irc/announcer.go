// Package irc announces published games on IRC using the girc library.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lrstanley/girc"
	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/version"
)

// maxLineLen keeps PRIVMSG lines under the 512 byte protocol limit once
// the prefix and target are added by the server.
const maxLineLen = 400

// Announcer connects, posts to every configured channel, and quits.
type Announcer struct {
	cfg config.IRCConfig
	log *logging.Logger
}

// New creates an announcer from configuration.
func New(cfg config.IRCConfig, log *logging.Logger) *Announcer {
	return &Announcer{
		cfg: cfg,
		log: log.Sub("irc"),
	}
}

// Announce delivers text to all configured channels in a single session.
// It blocks until the server has been told to close the connection or ctx
// is cancelled.
func (a *Announcer) Announce(ctx context.Context, text string) error {
	if len(a.cfg.Channels) == 0 {
		return nil
	}
	if a.cfg.Server == "" || a.cfg.Nick == "" {
		return fmt.Errorf("irc: server and nick are required")
	}

	lines := splitMessage(text, maxLineLen)
	client := girc.New(a.clientConfig())

	var delivered atomic.Bool
	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, _ girc.Event) {
		for _, ch := range a.cfg.Channels {
			c.Cmd.Join(ch)
			for _, line := range lines {
				c.Cmd.Message(ch, line)
			}
		}
		delivered.Store(true)
		c.Quit("published")
	})

	a.log.Info().
		Str("server", a.cfg.Server).
		Int("port", a.port()).
		Str("nick", a.cfg.Nick).
		Strs("channels", a.cfg.Channels).
		Bool("tls", a.cfg.UseTLS).
		Msg("connecting to IRC")

	// Connect blocks until the session ends.
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	select {
	case err := <-errCh:
		if delivered.Load() {
			if err != nil {
				a.log.Debug().Err(err).Msg("connection closed after announce")
			}
			a.log.Info().Int("lines", len(lines)).Msg("announced on IRC")
			return nil
		}
		if err == nil {
			return fmt.Errorf("irc: disconnected before announcing")
		}
		return fmt.Errorf("irc connect: %w", err)
	case <-ctx.Done():
		client.Close()
		return ctx.Err()
	}
}

func (a *Announcer) port() int {
	if a.cfg.Port != 0 {
		return a.cfg.Port
	}
	if a.cfg.UseTLS {
		return 6697
	}
	return 6667
}

func (a *Announcer) clientConfig() girc.Config {
	cfg := girc.Config{
		Server:  a.cfg.Server,
		Port:    a.port(),
		Nick:    a.cfg.Nick,
		User:    a.cfg.Nick,
		Name:    "jackbot announcer",
		SSL:     a.cfg.UseTLS,
		Version: version.UserAgent(),
	}

	if a.cfg.UseTLS {
		cfg.TLSConfig = &tls.Config{
			ServerName: a.cfg.Server,
		}
	}

	if a.cfg.SASL && a.cfg.Password != "" {
		cfg.SASL = &girc.SASLPlain{
			User: a.cfg.Nick,
			Pass: a.cfg.Password,
		}
	} else if a.cfg.Password != "" {
		cfg.ServerPass = a.cfg.Password
	}
	return cfg
}

// splitMessage breaks text into PRIVMSG-sized chunks. PRIVMSG cannot carry
// embedded newlines, so every line becomes at least one chunk; blank lines
// are dropped and long lines are cut at maxLen bytes without splitting a
// UTF-8 sequence.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8Start(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if strings.TrimSpace(line) != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
