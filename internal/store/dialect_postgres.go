package store

import (
	"fmt"
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NowExpr() string    { return "NOW()" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib, the underlying error message includes the PG code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

func (d *PostgresDialect) SystemTablesSQL() string {
	return pgSystemTablesSQL
}

const pgSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT NOT NULL DEFAULT '[]',
    active        BOOLEAN DEFAULT true,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id    UUID NOT NULL REFERENCES _users(id) ON DELETE CASCADE,
    token      UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token ON _refresh_tokens(token);

CREATE TABLE IF NOT EXISTS _webhook_deliveries (
    id              UUID PRIMARY KEY,
    event           TEXT NOT NULL,
    action          TEXT NOT NULL,
    url             TEXT NOT NULL,
    request_body    TEXT NOT NULL,
    signature       TEXT NOT NULL,
    response_status INT,
    response_body   TEXT,
    error           TEXT,
    created_at      TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id        BIGSERIAL PRIMARY KEY,
    login     TEXT NOT NULL UNIQUE,
    firstname TEXT NOT NULL DEFAULT '',
    lastname  TEXT NOT NULL DEFAULT '',
    mail      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS projects (
    id         BIGSERIAL PRIMARY KEY,
    identifier TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trackers (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
    id         BIGSERIAL PRIMARY KEY,
    project_id BIGINT NOT NULL REFERENCES projects(id),
    tracker_id BIGINT REFERENCES trackers(id),
    subject    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS time_entries (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL REFERENCES users(id),
    project_id  BIGINT NOT NULL REFERENCES projects(id),
    issue_id    BIGINT REFERENCES issues(id),
    activity_id BIGINT NOT NULL REFERENCES activities(id),
    hours       DOUBLE PRECISION NOT NULL DEFAULT 0,
    comments    TEXT NOT NULL DEFAULT '',
    spent_on    DATE NOT NULL,
    created_on  TIMESTAMPTZ DEFAULT NOW(),
    updated_on  TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_time_entries_issue ON time_entries(issue_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_user_date ON time_entries(user_id, spent_on);

CREATE TABLE IF NOT EXISTS custom_fields (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_values (
    id              BIGSERIAL PRIMARY KEY,
    custom_field_id BIGINT NOT NULL REFERENCES custom_fields(id),
    time_entry_id   BIGINT NOT NULL REFERENCES time_entries(id) ON DELETE CASCADE,
    value           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_custom_values_entry ON custom_values(time_entry_id);
`
