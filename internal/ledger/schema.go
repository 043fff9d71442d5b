package ledger

// Schema is applied on open. The ledger is an index over completed
// runs; the artifact directories remain the source of truth.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT UNIQUE NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	goal TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	agents TEXT NOT NULL DEFAULT '[]',
	start_time DATETIME,
	end_time DATETIME,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	requests INTEGER NOT NULL DEFAULT 0,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	model TEXT NOT NULL DEFAULT '',
	estimated_usd REAL NOT NULL DEFAULT 0,
	event_count INTEGER NOT NULL DEFAULT 0,
	artifacts_path TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS handoffs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	from_agent TEXT NOT NULL,
	to_agent TEXT NOT NULL,
	kind TEXT NOT NULL,
	at DATETIME,
	UNIQUE(run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_handoffs_run ON handoffs(run_id);
`
