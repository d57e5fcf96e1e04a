package store

// Schema is the SQL schema for the catalog index database.
const Schema = `
CREATE TABLE IF NOT EXISTS catalogs (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    enabled      INTEGER NOT NULL DEFAULT 1,
    metadata     TEXT NOT NULL,
    last_fetched TEXT,
    status       TEXT NOT NULL DEFAULT 'healthy'
                 CHECK(status IN ('healthy', 'error')),
    error        TEXT,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
    id             TEXT NOT NULL,
    catalog_id     TEXT NOT NULL REFERENCES catalogs(id) ON DELETE CASCADE,
    type           TEXT NOT NULL,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    path           TEXT NOT NULL,
    version        TEXT NOT NULL,
    category       TEXT NOT NULL DEFAULT '',
    tags           TEXT NOT NULL DEFAULT '[]',
    keywords       TEXT NOT NULL DEFAULT '[]',
    language       TEXT NOT NULL DEFAULT '[]',
    framework      TEXT NOT NULL DEFAULT '[]',
    use_case       TEXT NOT NULL DEFAULT '[]',
    difficulty     TEXT,
    source_url     TEXT NOT NULL,
    metadata       TEXT NOT NULL DEFAULT '{}',
    author         TEXT,
    compatibility  TEXT,
    dependencies   TEXT NOT NULL DEFAULT '[]',
    estimated_time TEXT,
    PRIMARY KEY (id, catalog_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts5(
    name,
    description,
    tags,
    keywords,
    category,
    content='artifacts',
    content_rowid='rowid'
);

CREATE TABLE IF NOT EXISTS installations (
    id             TEXT PRIMARY KEY,
    artifact_id    TEXT NOT NULL,
    catalog_id     TEXT NOT NULL,
    version        TEXT NOT NULL,
    installed_path TEXT NOT NULL,
    installed_at   TEXT NOT NULL DEFAULT (datetime('now')),
    last_used      TEXT,
    UNIQUE(artifact_id, catalog_id)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_catalog ON artifacts(catalog_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type);
CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category);
CREATE INDEX IF NOT EXISTS idx_installations_key ON installations(artifact_id, catalog_id);
`

// Triggers keep artifacts_fts synchronized with the artifacts table.
// They fire inside the writer's transaction, which is what guarantees
// index consistency for concurrent readers.
const Triggers = `
CREATE TRIGGER IF NOT EXISTS artifacts_ai AFTER INSERT ON artifacts BEGIN
    INSERT INTO artifacts_fts(rowid, name, description, tags, keywords, category)
    VALUES (new.rowid, new.name, new.description, new.tags, new.keywords, new.category);
END;
CREATE TRIGGER IF NOT EXISTS artifacts_ad AFTER DELETE ON artifacts BEGIN
    INSERT INTO artifacts_fts(artifacts_fts, rowid, name, description, tags, keywords, category)
    VALUES('delete', old.rowid, old.name, old.description, old.tags, old.keywords, old.category);
END;
CREATE TRIGGER IF NOT EXISTS artifacts_au AFTER UPDATE ON artifacts BEGIN
    INSERT INTO artifacts_fts(artifacts_fts, rowid, name, description, tags, keywords, category)
    VALUES('delete', old.rowid, old.name, old.description, old.tags, old.keywords, old.category);
    INSERT INTO artifacts_fts(rowid, name, description, tags, keywords, category)
    VALUES (new.rowid, new.name, new.description, new.tags, new.keywords, new.category);
END;
`
