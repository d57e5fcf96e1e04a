// Package update compares installed artifact versions against the
// catalog index and reports which installations have newer versions
// available.
package update

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/httpx"
	"github.com/agenthub-labs/agenthub/internal/store"
)

// changelogLines bounds the excerpt pulled from a CHANGELOG.md sibling.
const changelogLines = 20

// Info describes one available update.
type Info struct {
	Installation  store.Installation
	LatestVersion string
	// Changelog is a best-effort excerpt; empty when unavailable.
	Changelog string
}

// Status annotates an installation with its update state for display.
type Status struct {
	store.InstallationWithArtifact
	UpdateAvailable bool
	NewVersion      string
}

// AuthLookup returns the auth config for a catalog id, or nil.
type AuthLookup func(catalogID string) *auth.Config

// Engine checks installations against the catalog index.
type Engine struct {
	store    *store.Store
	fetcher  *httpx.Fetcher
	resolver *auth.Resolver
}

// New returns an Engine. fetcher and resolver are only used for
// changelog excerpts and may be nil to skip them.
func New(st *store.Store, fetcher *httpx.Fetcher, resolver *auth.Resolver) *Engine {
	return &Engine{store: st, fetcher: fetcher, resolver: resolver}
}

// CheckForUpdates scans every installation and returns those whose
// catalog artifact advertises a newer version. Installations whose
// artifact is no longer in the catalog are skipped here; they still
// show up (orphaned) in Statuses.
func (e *Engine) CheckForUpdates(ctx context.Context, authFor AuthLookup) ([]Info, error) {
	installations, err := e.store.ListInstallations()
	if err != nil {
		return nil, fmt.Errorf("listing installations: %w", err)
	}

	var updates []Info
	for _, inst := range installations {
		artifact, err := e.store.GetArtifact(inst.CatalogID, inst.ArtifactID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up artifact %q: %w", inst.ArtifactID, err)
		}

		if !IsNewer(artifact.Version, inst.Version) {
			continue
		}

		var authCfg *auth.Config
		if authFor != nil {
			authCfg = authFor(inst.CatalogID)
		}
		updates = append(updates, Info{
			Installation:  inst,
			LatestVersion: artifact.Version,
			Changelog:     e.fetchChangelog(ctx, inst.CatalogID, artifact.SourceURL, authCfg),
		})
	}
	return updates, nil
}

// Statuses left-joins installations to artifacts and annotates each
// with the update list. Orphaned installations render with a nil
// artifact and no update.
func (e *Engine) Statuses(updates []Info) ([]Status, error) {
	joined, err := e.store.InstallationsWithArtifacts()
	if err != nil {
		return nil, fmt.Errorf("joining installations: %w", err)
	}

	byKey := make(map[string]Info, len(updates))
	for _, u := range updates {
		byKey[u.Installation.Key()] = u
	}

	out := make([]Status, len(joined))
	for i, entry := range joined {
		s := Status{InstallationWithArtifact: entry}
		if u, ok := byKey[entry.Key()]; ok {
			s.UpdateAvailable = true
			s.NewVersion = u.LatestVersion
		}
		out[i] = s
	}
	return out, nil
}

// fetchChangelog pulls the first lines of a CHANGELOG.md next to the
// artifact's source file. Every failure collapses to "no changelog".
func (e *Engine) fetchChangelog(ctx context.Context, catalogID, sourceURL string, authCfg *auth.Config) string {
	if e.fetcher == nil || sourceURL == "" {
		return ""
	}

	idx := strings.LastIndex(sourceURL, "/")
	if idx < 0 {
		return ""
	}
	changelogURL := sourceURL[:idx+1] + "CHANGELOG.md"

	var resolved *auth.Config
	if e.resolver != nil {
		resolved = e.resolver.Resolve(catalogID, authCfg)
	}

	text, err := e.fetcher.FetchText(ctx, changelogURL, httpx.Request{Auth: resolved})
	if err != nil {
		return ""
	}

	lines := strings.Split(text, "\n")
	if len(lines) > changelogLines {
		lines = lines[:changelogLines]
	}
	return strings.Join(lines, "\n")
}
