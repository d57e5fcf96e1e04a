package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agenthub-labs/agenthub/internal/manifest"
)

// timeFormat is how timestamps are persisted. SQLite's datetime()
// defaults are not used for Go-written rows so round-trips stay exact.
const timeFormat = time.RFC3339

// UpsertCatalog creates or updates a catalog subscription. Health
// fields are left alone on update; only the sync engine touches those.
func (s *Store) UpsertCatalog(c Catalog) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("encoding catalog metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO catalogs (id, url, enabled, metadata, status)
		VALUES (?, ?, ?, ?, 'healthy')
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			enabled = excluded.enabled,
			metadata = excluded.metadata,
			updated_at = datetime('now')`,
		c.ID, c.URL, boolToInt(c.Enabled), string(meta),
	)
	if err != nil {
		return fmt.Errorf("upserting catalog %q: %w", c.ID, err)
	}
	return nil
}

// GetCatalog returns a catalog by id, or ErrNotFound.
func (s *Store) GetCatalog(id string) (*Catalog, error) {
	row := s.db.QueryRow(`
		SELECT id, url, enabled, metadata, last_fetched, status, error
		FROM catalogs WHERE id = ?`, id)
	return scanCatalog(row)
}

// ListCatalogs returns all subscribed catalogs ordered by id.
func (s *Store) ListCatalogs() ([]Catalog, error) {
	rows, err := s.db.Query(`
		SELECT id, url, enabled, metadata, last_fetched, status, error
		FROM catalogs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	defer rows.Close()

	var catalogs []Catalog
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, *c)
	}
	return catalogs, rows.Err()
}

// DeleteCatalog removes a catalog together with its installations.
// Artifacts cascade via the foreign key in the same transaction.
func (s *Store) DeleteCatalog(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM catalogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting catalog %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("catalog %q: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM installations WHERE catalog_id = ?`, id); err != nil {
		return fmt.Errorf("deleting installations for %q: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SetCatalogError records a failed sync. The previously indexed
// artifacts are deliberately left untouched so search keeps serving the
// last good snapshot.
func (s *Store) SetCatalogError(id, message string) error {
	_, err := s.db.Exec(`
		UPDATE catalogs SET status = 'error', error = ?, updated_at = datetime('now')
		WHERE id = ?`, message, id)
	if err != nil {
		return fmt.Errorf("recording catalog error for %q: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalog(row rowScanner) (*Catalog, error) {
	var (
		c           Catalog
		enabled     int
		meta        string
		lastFetched sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&c.ID, &c.URL, &enabled, &meta, &lastFetched, &c.Status, &errMsg)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning catalog: %w", err)
	}

	c.Enabled = enabled != 0
	c.Error = errMsg.String

	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		return nil, &DecodeError{Entity: "catalog", Column: "metadata", Err: err}
	}
	if lastFetched.Valid {
		t, err := parseTime(lastFetched.String)
		if err != nil {
			return nil, &DecodeError{Entity: "catalog", Column: "last_fetched", Err: err}
		}
		c.LastFetched = &t
	}
	return &c, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		// Tolerate rows written by SQLite's datetime('now') default.
		t, err = time.Parse("2006-01-02 15:04:05", s)
	}
	return t, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// decodeStringSlice is the explicit decode step for JSON-array columns.
func decodeStringSlice(entity, column, raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &DecodeError{Entity: entity, Column: column, Err: err}
	}
	return out, nil
}

func encodeStringSlice(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStats(raw string) (*manifest.ArtifactStats, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var stats manifest.ArtifactStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, &DecodeError{Entity: "artifact", Column: "metadata", Err: err}
	}
	return &stats, nil
}
