package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertInstallation records an install, or refreshes the version,
// path, and timestamp in place when the (artifact, catalog) pair is
// already installed. There is never more than one row per pair.
func (s *Store) UpsertInstallation(inst Installation) (*Installation, error) {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	if inst.InstalledAt.IsZero() {
		inst.InstalledAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO installations (id, artifact_id, catalog_id, version, installed_path, installed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(artifact_id, catalog_id) DO UPDATE SET
			version = excluded.version,
			installed_path = excluded.installed_path,
			installed_at = excluded.installed_at`,
		inst.ID, inst.ArtifactID, inst.CatalogID, inst.Version,
		inst.InstalledPath, inst.InstalledAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting installation for %q: %w", inst.ArtifactID, err)
	}
	return s.GetInstallation(inst.CatalogID, inst.ArtifactID)
}

// GetInstallation returns the installation for the pair, or ErrNotFound.
func (s *Store) GetInstallation(catalogID, artifactID string) (*Installation, error) {
	row := s.db.QueryRow(`
		SELECT id, artifact_id, catalog_id, version, installed_path, installed_at, last_used
		FROM installations WHERE catalog_id = ? AND artifact_id = ?`,
		catalogID, artifactID)
	return scanInstallation(row)
}

// DeleteInstallation removes the installation row for the pair.
// Deleting an absent row is not an error.
func (s *Store) DeleteInstallation(catalogID, artifactID string) error {
	_, err := s.db.Exec(`
		DELETE FROM installations WHERE catalog_id = ? AND artifact_id = ?`,
		catalogID, artifactID)
	if err != nil {
		return fmt.Errorf("deleting installation for %q: %w", artifactID, err)
	}
	return nil
}

// TouchInstallation updates the last-used timestamp.
func (s *Store) TouchInstallation(catalogID, artifactID string) error {
	_, err := s.db.Exec(`
		UPDATE installations SET last_used = ? WHERE catalog_id = ? AND artifact_id = ?`,
		time.Now().UTC().Format(timeFormat), catalogID, artifactID)
	if err != nil {
		return fmt.Errorf("touching installation for %q: %w", artifactID, err)
	}
	return nil
}

// ListInstallations returns every installation ordered by install time.
func (s *Store) ListInstallations() ([]Installation, error) {
	rows, err := s.db.Query(`
		SELECT id, artifact_id, catalog_id, version, installed_path, installed_at, last_used
		FROM installations ORDER BY installed_at`)
	if err != nil {
		return nil, fmt.Errorf("listing installations: %w", err)
	}
	defer rows.Close()

	var out []Installation
	for rows.Next() {
		inst, err := scanInstallation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

// InstalledKeys returns which of the given (catalogID, artifactID)
// pairs are installed, keyed "catalogID:artifactID". One batched query,
// not a query per artifact.
func (s *Store) InstalledKeys(pairs [][2]string) (map[string]bool, error) {
	if len(pairs) == 0 {
		return map[string]bool{}, nil
	}

	placeholders := make([]string, len(pairs))
	args := make([]any, 0, len(pairs)*2)
	for i, p := range pairs {
		placeholders[i] = "(?, ?)"
		args = append(args, p[0], p[1])
	}

	rows, err := s.db.Query(`
		SELECT catalog_id, artifact_id FROM installations
		WHERE (catalog_id, artifact_id) IN (VALUES `+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("checking installed keys: %w", err)
	}
	defer rows.Close()

	installed := make(map[string]bool)
	for rows.Next() {
		var catalogID, artifactID string
		if err := rows.Scan(&catalogID, &artifactID); err != nil {
			return nil, err
		}
		installed[catalogID+":"+artifactID] = true
	}
	return installed, rows.Err()
}

// InstallationsWithArtifacts left-joins installations to their catalog
// artifacts. Orphaned installations (catalog no longer advertises the
// artifact) come back with a nil Artifact.
func (s *Store) InstallationsWithArtifacts() ([]InstallationWithArtifact, error) {
	rows, err := s.db.Query(`
		SELECT i.id, i.artifact_id, i.catalog_id, i.version, i.installed_path,
			i.installed_at, i.last_used,
			` + artifactColumns + `
		FROM installations i
		LEFT JOIN artifacts a ON i.catalog_id = a.catalog_id AND i.artifact_id = a.id
		ORDER BY i.installed_at`)
	if err != nil {
		return nil, fmt.Errorf("joining installations to artifacts: %w", err)
	}
	defer rows.Close()

	var out []InstallationWithArtifact
	for rows.Next() {
		var (
			inst          Installation
			installedAt   string
			lastUsed      sql.NullString
			aID           sql.NullString
			aCatalogID    sql.NullString
			aType         sql.NullString
			aName         sql.NullString
			aDescription  sql.NullString
			aPath         sql.NullString
			aVersion      sql.NullString
			aCategory     sql.NullString
			tags          sql.NullString
			keywords      sql.NullString
			language      sql.NullString
			framework     sql.NullString
			useCase       sql.NullString
			difficulty    sql.NullString
			sourceURL     sql.NullString
			meta          sql.NullString
			author        sql.NullString
			compatibility sql.NullString
			dependencies  sql.NullString
			estimatedTime sql.NullString
		)

		err := rows.Scan(
			&inst.ID, &inst.ArtifactID, &inst.CatalogID, &inst.Version,
			&inst.InstalledPath, &installedAt, &lastUsed,
			&aID, &aCatalogID, &aType, &aName, &aDescription, &aPath,
			&aVersion, &aCategory, &tags, &keywords, &language, &framework,
			&useCase, &difficulty, &sourceURL, &meta, &author,
			&compatibility, &dependencies, &estimatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning installation join: %w", err)
		}

		t, err := parseTime(installedAt)
		if err != nil {
			return nil, &DecodeError{Entity: "installation", Column: "installed_at", Err: err}
		}
		inst.InstalledAt = t
		if lastUsed.Valid {
			lu, err := parseTime(lastUsed.String)
			if err != nil {
				return nil, &DecodeError{Entity: "installation", Column: "last_used", Err: err}
			}
			inst.LastUsed = &lu
		}

		entry := InstallationWithArtifact{Installation: inst}
		if aID.Valid {
			a := Artifact{CatalogID: aCatalogID.String, SourceURL: sourceURL.String}
			a.ID = aID.String
			a.Type = aType.String
			a.Name = aName.String
			a.Description = aDescription.String
			a.Path = aPath.String
			a.Version = aVersion.String
			a.Category = aCategory.String
			a.Difficulty = difficulty.String
			a.Author = author.String
			a.Compatibility = compatibility.String
			a.EstimatedTime = estimatedTime.String
			if a.Tags, err = decodeStringSlice("artifact", "tags", tags.String); err != nil {
				return nil, err
			}
			if a.Keywords, err = decodeStringSlice("artifact", "keywords", keywords.String); err != nil {
				return nil, err
			}
			if a.Language, err = decodeStringSlice("artifact", "language", language.String); err != nil {
				return nil, err
			}
			if a.Framework, err = decodeStringSlice("artifact", "framework", framework.String); err != nil {
				return nil, err
			}
			if a.UseCase, err = decodeStringSlice("artifact", "use_case", useCase.String); err != nil {
				return nil, err
			}
			if a.Dependencies, err = decodeStringSlice("artifact", "dependencies", dependencies.String); err != nil {
				return nil, err
			}
			if a.Metadata, err = decodeStats(meta.String); err != nil {
				return nil, err
			}
			entry.Artifact = &a
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanInstallation(row rowScanner) (*Installation, error) {
	var (
		inst        Installation
		installedAt string
		lastUsed    sql.NullString
	)
	err := row.Scan(&inst.ID, &inst.ArtifactID, &inst.CatalogID, &inst.Version,
		&inst.InstalledPath, &installedAt, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning installation: %w", err)
	}

	t, err := parseTime(installedAt)
	if err != nil {
		return nil, &DecodeError{Entity: "installation", Column: "installed_at", Err: err}
	}
	inst.InstalledAt = t
	if lastUsed.Valid {
		lu, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, &DecodeError{Entity: "installation", Column: "last_used", Err: err}
		}
		inst.LastUsed = &lu
	}
	return &inst, nil
}
