package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
    file_path    TEXT NOT NULL,
    project      TEXT NOT NULL,
    kind         TEXT NOT NULL DEFAULT '',
    ts_unix_ns   INTEGER NOT NULL,
    local_date   TEXT NOT NULL,
    local_hour   INTEGER NOT NULL,
    local_month  TEXT NOT NULL,
    input_tokens  INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    has_usage    INTEGER NOT NULL DEFAULT 0,
    cost_usd     REAL NOT NULL DEFAULT 0,
    has_cost     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path    TEXT PRIMARY KEY,
    mtime_ns     INTEGER NOT NULL,
    size_bytes   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key          TEXT PRIMARY KEY,
    value        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts_unix_ns);
CREATE INDEX IF NOT EXISTS idx_entries_file ON entries(file_path);
CREATE INDEX IF NOT EXISTS idx_entries_project ON entries(project);
`
