package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning    = "running"
	StatusDispatched = "dispatched"
	StatusFailed     = "failed"
	StatusAborted    = "aborted"
	StatusDryRun     = "dry_run"
)

// ErrRunNotFound is returned when a publish run does not exist.
var ErrRunNotFound = errors.New("publish run not found")

// PublishRun is one invocation of the publish pipeline.
type PublishRun struct {
	ID         string     `json:"id"`
	Game       string     `json:"game"`
	GameID     string     `json:"gameId"`
	Account    string     `json:"account,omitempty"`
	Channel    string     `json:"channel,omitempty"`
	Anchor     string     `json:"anchor,omitempty"`
	Status     string     `json:"status"`
	Queued     int        `json:"queued"`
	Sent       int        `json:"sent"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// PostedMessage is a message a run left in a channel.
type PostedMessage struct {
	RunID     string     `json:"runId"`
	Channel   string     `json:"channel"`
	Timestamp string     `json:"ts"`
	Kind      string     `json:"kind"`
	PostedAt  time.Time  `json:"postedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Outcome is the final state of a run.
type Outcome struct {
	Status string
	Anchor string
	Queued int
	Sent   int
	Err    error
}

// HistoryStore records publish runs and the messages they posted.
type HistoryStore struct {
	db  *DB
	now func() time.Time
}

// NewHistoryStore creates a history store using the given database.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

// Begin inserts a run in the running state. An empty ID is filled in.
func (h *HistoryStore) Begin(run PublishRun) (*PublishRun, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = StatusRunning
	run.StartedAt = h.now().UTC()

	_, err := h.db.sql.Exec(
		`INSERT INTO publish_runs (id, game, game_id, account, channel, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Game, run.GameID, run.Account, run.Channel, run.Status,
		run.StartedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// SetChannel records the resolved channel of a run.
func (h *HistoryStore) SetChannel(id, channel string) error {
	return h.update(id, `UPDATE publish_runs SET channel = ? WHERE id = ?`, channel, id)
}

// Finish stores the outcome of a run.
func (h *HistoryStore) Finish(id string, out Outcome) error {
	var msg string
	if out.Err != nil {
		msg = out.Err.Error()
	}
	return h.update(id,
		`UPDATE publish_runs
		 SET status = ?, anchor = ?, queued = ?, sent = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		out.Status, out.Anchor, out.Queued, out.Sent, msg,
		h.now().UTC().Format(time.DateTime), id,
	)
}

func (h *HistoryStore) update(id, query string, args ...any) error {
	res, err := h.db.sql.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Get returns a run by ID.
func (h *HistoryStore) Get(id string) (*PublishRun, error) {
	row := h.db.sql.QueryRow(
		`SELECT id, game, game_id, account, channel, anchor, status, queued, sent, error, started_at, finished_at
		 FROM publish_runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Recent returns the latest runs, newest first. Limit of 0 defaults to 20.
func (h *HistoryStore) Recent(limit int) ([]PublishRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.sql.Query(
		`SELECT id, game, game_id, account, channel, anchor, status, queued, sent, error, started_at, finished_at
		 FROM publish_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []PublishRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RecordMessage adds a posted message to the ledger of a run.
func (h *HistoryStore) RecordMessage(runID, channel, ts, kind string) error {
	_, err := h.db.sql.Exec(
		`INSERT INTO posted_messages (run_id, channel, ts, kind, posted_at) VALUES (?, ?, ?, ?, ?)`,
		runID, channel, ts, kind, h.now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("record message %s: %w", ts, err)
	}
	return nil
}

// Messages returns the ledger of a run in posting order.
func (h *HistoryStore) Messages(runID string) ([]PostedMessage, error) {
	rows, err := h.db.sql.Query(
		`SELECT run_id, channel, ts, kind, posted_at, deleted_at
		 FROM posted_messages WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []PostedMessage
	for rows.Next() {
		var m PostedMessage
		var postedAt string
		var deletedAt sql.NullString
		if err := rows.Scan(&m.RunID, &m.Channel, &m.Timestamp, &m.Kind, &postedAt, &deletedAt); err != nil {
			return nil, err
		}
		m.PostedAt, _ = time.Parse(time.DateTime, postedAt)
		m.DeletedAt = parseNullTime(deletedAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkDeleted flags a ledger entry after the message was removed from the
// channel. Unknown messages are ignored.
func (h *HistoryStore) MarkDeleted(channel, ts string) error {
	_, err := h.db.sql.Exec(
		`UPDATE posted_messages SET deleted_at = ? WHERE channel = ? AND ts = ? AND deleted_at IS NULL`,
		h.now().UTC().Format(time.DateTime), channel, ts,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*PublishRun, error) {
	var run PublishRun
	var startedAt string
	var finishedAt sql.NullString
	err := s.Scan(
		&run.ID, &run.Game, &run.GameID, &run.Account, &run.Channel, &run.Anchor,
		&run.Status, &run.Queued, &run.Sent, &run.Error, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.DateTime, startedAt)
	run.FinishedAt = parseNullTime(finishedAt)
	return &run, nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.DateTime, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
