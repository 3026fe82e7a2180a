package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create publish runs",
		SQL: `
			CREATE TABLE publish_runs (
				id           TEXT PRIMARY KEY,
				game         TEXT NOT NULL,
				game_id      TEXT NOT NULL,
				account      TEXT NOT NULL DEFAULT '',
				channel      TEXT NOT NULL DEFAULT '',
				anchor       TEXT NOT NULL DEFAULT '',
				status       TEXT NOT NULL,
				queued       INTEGER NOT NULL DEFAULT 0,
				sent         INTEGER NOT NULL DEFAULT 0,
				error        TEXT NOT NULL DEFAULT '',
				started_at   TEXT NOT NULL DEFAULT (datetime('now')),
				finished_at  TEXT
			);

			CREATE INDEX idx_runs_started ON publish_runs (started_at);
			CREATE INDEX idx_runs_game ON publish_runs (game, game_id);
		`,
	},
	{
		Version: 2,
		Name:    "create posted messages",
		SQL: `
			CREATE TABLE posted_messages (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id      TEXT NOT NULL REFERENCES publish_runs(id) ON DELETE CASCADE,
				channel     TEXT NOT NULL,
				ts          TEXT NOT NULL,
				kind        TEXT NOT NULL,
				posted_at   TEXT NOT NULL DEFAULT (datetime('now')),
				deleted_at  TEXT
			);

			CREATE INDEX idx_posted_run ON posted_messages (run_id, id);
			CREATE INDEX idx_posted_ts ON posted_messages (channel, ts);
		`,
	},
}
