package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// artifactColumns is the select list shared by every artifact query.
const artifactColumns = `a.id, a.catalog_id, a.type, a.name, a.description, a.path,
	a.version, a.category, a.tags, a.keywords, a.language, a.framework,
	a.use_case, a.difficulty, a.source_url, a.metadata, a.author,
	a.compatibility, a.dependencies, a.estimated_time`

// ReplaceArtifacts atomically replaces a catalog's entire artifact set
// and marks the catalog healthy. The delete, the inserts, and the
// health update commit together or not at all.
func (s *Store) ReplaceArtifacts(catalogID string, artifacts []Artifact) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM artifacts WHERE catalog_id = ?`, catalogID); err != nil {
		return fmt.Errorf("clearing artifacts for %q: %w", catalogID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO artifacts (
			id, catalog_id, type, name, description, path, version, category,
			tags, keywords, language, framework, use_case, difficulty,
			source_url, metadata, author, compatibility, dependencies, estimated_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing artifact insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range artifacts {
		args, err := encodeArtifact(catalogID, a)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting artifact %q: %w", a.ID, err)
		}
	}

	now := time.Now().UTC().Format(timeFormat)
	if _, err := tx.Exec(`
		UPDATE catalogs SET status = 'healthy', error = NULL,
			last_fetched = ?, updated_at = datetime('now')
		WHERE id = ?`, now, catalogID); err != nil {
		return fmt.Errorf("marking catalog %q healthy: %w", catalogID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetArtifact returns one artifact by composite key, or ErrNotFound.
func (s *Store) GetArtifact(catalogID, artifactID string) (*Artifact, error) {
	row := s.db.QueryRow(`
		SELECT `+artifactColumns+` FROM artifacts a
		WHERE a.catalog_id = ? AND a.id = ?`, catalogID, artifactID)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// CountArtifacts returns the number of artifact rows, optionally
// restricted to one catalog ("" means all).
func (s *Store) CountArtifacts(catalogID string) (int, error) {
	q := `SELECT COUNT(*) FROM artifacts`
	var args []any
	if catalogID != "" {
		q += ` WHERE catalog_id = ?`
		args = append(args, catalogID)
	}
	var n int
	if err := s.db.QueryRow(q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artifacts: %w", err)
	}
	return n, nil
}

// Categories returns all distinct categories in ascending order.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT category FROM artifacts
		WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Tags returns the union of every artifact's tags, sorted.
func (s *Store) Tags() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT tags FROM artifacts`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		tags, err := decodeStringSlice("artifact", "tags", raw)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func encodeArtifact(catalogID string, a Artifact) ([]any, error) {
	tags, err := encodeStringSlice(a.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags for %q: %w", a.ID, err)
	}
	keywords, err := encodeStringSlice(a.Keywords)
	if err != nil {
		return nil, fmt.Errorf("encoding keywords for %q: %w", a.ID, err)
	}
	language, err := encodeStringSlice(a.Language)
	if err != nil {
		return nil, fmt.Errorf("encoding language for %q: %w", a.ID, err)
	}
	framework, err := encodeStringSlice(a.Framework)
	if err != nil {
		return nil, fmt.Errorf("encoding framework for %q: %w", a.ID, err)
	}
	useCase, err := encodeStringSlice(a.UseCase)
	if err != nil {
		return nil, fmt.Errorf("encoding useCase for %q: %w", a.ID, err)
	}
	dependencies, err := encodeStringSlice(a.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("encoding dependencies for %q: %w", a.ID, err)
	}

	meta := "{}"
	if a.Metadata != nil {
		data, err := json.Marshal(a.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata for %q: %w", a.ID, err)
		}
		meta = string(data)
	}

	return []any{
		a.ID, catalogID, a.Type, a.Name, a.Description, a.Path, a.Version,
		a.Category, tags, keywords, language, framework, useCase,
		nullable(a.Difficulty), a.SourceURL, meta, nullable(a.Author),
		nullable(a.Compatibility), dependencies, nullable(a.EstimatedTime),
	}, nil
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var (
		a             Artifact
		tags          string
		keywords      string
		language      string
		framework     string
		useCase       string
		difficulty    sql.NullString
		meta          string
		author        sql.NullString
		compatibility sql.NullString
		dependencies  string
		estimatedTime sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.CatalogID, &a.Type, &a.Name, &a.Description, &a.Path,
		&a.Version, &a.Category, &tags, &keywords, &language, &framework,
		&useCase, &difficulty, &a.SourceURL, &meta, &author,
		&compatibility, &dependencies, &estimatedTime,
	)
	if err != nil {
		return nil, err
	}

	if a.Tags, err = decodeStringSlice("artifact", "tags", tags); err != nil {
		return nil, err
	}
	if a.Keywords, err = decodeStringSlice("artifact", "keywords", keywords); err != nil {
		return nil, err
	}
	if a.Language, err = decodeStringSlice("artifact", "language", language); err != nil {
		return nil, err
	}
	if a.Framework, err = decodeStringSlice("artifact", "framework", framework); err != nil {
		return nil, err
	}
	if a.UseCase, err = decodeStringSlice("artifact", "use_case", useCase); err != nil {
		return nil, err
	}
	if a.Dependencies, err = decodeStringSlice("artifact", "dependencies", dependencies); err != nil {
		return nil, err
	}
	if a.Metadata, err = decodeStats(meta); err != nil {
		return nil, err
	}

	a.Difficulty = difficulty.String
	a.Author = author.String
	a.Compatibility = compatibility.String
	a.EstimatedTime = estimatedTime.String
	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
