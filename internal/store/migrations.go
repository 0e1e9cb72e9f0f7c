package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cleanup_runs (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	folder      TEXT NOT NULL DEFAULT '',
	sender      TEXT NOT NULL DEFAULT '',
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_operation ON cleanup_runs(operation);
CREATE INDEX IF NOT EXISTS idx_runs_folder ON cleanup_runs(folder);
CREATE INDEX IF NOT EXISTS idx_runs_started ON cleanup_runs(started_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
