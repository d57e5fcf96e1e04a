package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/agenthub-labs/agenthub/internal/manifest"
)

// ErrNotFound reports a missing catalog, artifact, or installation.
var ErrNotFound = errors.New("not found")

// DecodeError reports malformed JSON in a stored column. It surfaces
// corruption explicitly instead of silently coercing the value.
type DecodeError struct {
	Entity string
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s.%s: %v", e.Entity, e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CatalogStatus is the health state recorded by the sync engine.
type CatalogStatus string

// Catalog health states.
const (
	StatusHealthy CatalogStatus = "healthy"
	StatusError   CatalogStatus = "error"
)

// Catalog is a subscribed remote manifest source.
type Catalog struct {
	ID          string
	URL         string
	Enabled     bool
	Metadata    manifest.Metadata
	LastFetched *time.Time
	Status      CatalogStatus
	Error       string
}

// Artifact is a catalog artifact row: the manifest entry plus the
// owning catalog and the raw-content URL resolved at sync time.
type Artifact struct {
	manifest.Artifact
	CatalogID string
	SourceURL string
}

// Key returns the composite identity used for installed-state lookups.
func (a *Artifact) Key() string {
	return a.CatalogID + ":" + a.ID
}

// Installation records that an artifact has been materialized into the
// local project tree at a given version and path.
type Installation struct {
	ID            string
	ArtifactID    string
	CatalogID     string
	Version       string
	InstalledPath string
	InstalledAt   time.Time
	LastUsed      *time.Time
}

// Key returns the composite identity matching Artifact.Key.
func (i *Installation) Key() string {
	return i.CatalogID + ":" + i.ArtifactID
}

// InstallationWithArtifact pairs an installation with its catalog
// artifact. Artifact is nil when the catalog no longer advertises it.
type InstallationWithArtifact struct {
	Installation
	Artifact *Artifact
}
