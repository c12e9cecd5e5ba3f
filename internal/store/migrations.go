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

CREATE TABLE IF NOT EXISTS sprints (
	id           TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	icon         TEXT NOT NULL DEFAULT '',
	is_backlog   INTEGER NOT NULL DEFAULT 0 CHECK(is_backlog IN (0, 1)),
	is_draggable INTEGER NOT NULL DEFAULT 1 CHECK(is_draggable IN (0, 1)),
	position     INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	archived_at  DATETIME,
	PRIMARY KEY (user_id, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sprints_one_backlog
	ON sprints(user_id) WHERE is_backlog = 1;
CREATE INDEX IF NOT EXISTS idx_sprints_position ON sprints(user_id, position);

CREATE TABLE IF NOT EXISTS stories (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	number       TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	completed    INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at DATETIME,
	date         DATETIME,
	tags         TEXT NOT NULL DEFAULT '[]',
	sprint_id    TEXT NOT NULL,
	position     INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	archived_at  DATETIME,
	UNIQUE (user_id, number),
	FOREIGN KEY (user_id, sprint_id) REFERENCES sprints(user_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_stories_sprint ON stories(user_id, sprint_id, position);
CREATE INDEX IF NOT EXISTS idx_stories_archived ON stories(user_id, archived_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id      TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	story_prefix TEXT NOT NULL DEFAULT 'STORY',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id    TEXT PRIMARY KEY,
	role       TEXT NOT NULL DEFAULT 'owner' CHECK(role IN ('owner', 'member', 'viewer')),
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
ALTER TABLE stories ADD COLUMN external_ref TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_stories_external_ref
	ON stories(user_id, external_ref) WHERE external_ref != '';

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}

// schemaVersion is the version the row mappers in rows.go are written for.
const schemaVersion = 3
