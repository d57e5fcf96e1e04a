package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/agenthub-labs/agenthub/internal/httpx"
	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/agenthub-labs/agenthub/internal/repourl"
	"github.com/agenthub-labs/agenthub/internal/store"
)

// refreshWorkers bounds how many catalogs RefreshAll fetches at once.
const refreshWorkers = 4

// Engine synchronizes subscribed catalogs into the store.
type Engine struct {
	store    *store.Store
	fetcher  *httpx.Fetcher
	resolver *auth.Resolver
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

// refreshCall coalesces concurrent refreshes of the same catalog.
type refreshCall struct {
	done chan struct{}
	err  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for sync activity.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine. resolver may be nil when no catalogs carry
// auth.
func New(st *store.Store, fetcher *httpx.Fetcher, resolver *auth.Resolver, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		fetcher:  fetcher,
		resolver: resolver,
		logger:   slog.Default(),
		inflight: make(map[string]*refreshCall),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh synchronizes one catalog. Concurrent refreshes of the same
// catalog coalesce into a single fetch; all callers get its result.
func (e *Engine) Refresh(ctx context.Context, repo config.Repository) error {
	e.mu.Lock()
	if call, ok := e.inflight[repo.ID]; ok {
		e.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	e.inflight[repo.ID] = call
	e.mu.Unlock()

	call.err = e.refresh(ctx, repo)

	e.mu.Lock()
	delete(e.inflight, repo.ID)
	e.mu.Unlock()
	close(call.done)

	return call.err
}

func (e *Engine) refresh(ctx context.Context, repo config.Repository) error {
	m, err := e.fetchManifest(ctx, repo)
	if err != nil {
		e.markError(repo, err)
		return err
	}

	artifacts, err := resolveArtifacts(repo.ID, m)
	if err != nil {
		e.markError(repo, err)
		return err
	}

	if err := e.store.UpsertCatalog(store.Catalog{
		ID:       repo.ID,
		URL:      repo.URL,
		Enabled:  repo.Enabled,
		Metadata: m.Metadata,
	}); err != nil {
		return fmt.Errorf("saving catalog %q: %w", repo.ID, err)
	}
	if err := e.store.ReplaceArtifacts(repo.ID, artifacts); err != nil {
		e.markError(repo, err)
		return fmt.Errorf("replacing artifacts for %q: %w", repo.ID, err)
	}

	e.logger.Info("catalog refreshed", "catalog", repo.ID, "artifacts", len(artifacts))
	return nil
}

func (e *Engine) fetchManifest(ctx context.Context, repo config.Repository) (*manifest.Manifest, error) {
	var resolved *auth.Config
	if e.resolver != nil {
		resolved = e.resolver.Resolve(repo.ID, repo.Auth)
	}

	resp, err := e.fetcher.Fetch(ctx, repo.URL, httpx.Request{Auth: resolved})
	if err != nil {
		return nil, fmt.Errorf("fetching catalog %q: %w", repo.ID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", repo.ID, err)
	}

	m, result, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %q: %w", repo.ID, err)
	}
	if m == nil {
		return nil, fmt.Errorf("catalog %q failed validation: %s", repo.ID, result.Summary())
	}
	return m, nil
}

// resolveArtifacts maps manifest entries to store rows, resolving each
// path against the catalog's repository to a raw-content URL.
func resolveArtifacts(catalogID string, m *manifest.Manifest) ([]store.Artifact, error) {
	repo := repourl.Repo{
		Kind:    repourl.ParseKind(m.Metadata.Repository.Type),
		BaseURL: m.Metadata.Repository.URL,
		Branch:  m.Metadata.Repository.Branch,
	}
	if m.Metadata.Repository.Type == "" {
		repo.Kind = repourl.Classify(m.Metadata.Repository.URL)
	}

	artifacts := make([]store.Artifact, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		sourceURL, err := repourl.ResolveArtifactURL(repo, a.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving source url for %q: %w", a.ID, err)
		}
		artifacts = append(artifacts, store.Artifact{
			Artifact:  a,
			CatalogID: catalogID,
			SourceURL: sourceURL,
		})
	}
	return artifacts, nil
}

// markError flags the catalog unhealthy, creating a bare row first if
// the catalog has never synced. Previously synced artifacts stay put.
func (e *Engine) markError(repo config.Repository, cause error) {
	if _, err := e.store.GetCatalog(repo.ID); errors.Is(err, store.ErrNotFound) {
		if err := e.store.UpsertCatalog(store.Catalog{ID: repo.ID, URL: repo.URL, Enabled: repo.Enabled}); err != nil {
			e.logger.Error("recording catalog row", "catalog", repo.ID, "error", err)
			return
		}
	}
	if err := e.store.SetCatalogError(repo.ID, cause.Error()); err != nil {
		e.logger.Error("recording catalog error", "catalog", repo.ID, "error", err)
	}
	e.logger.Warn("catalog refresh failed", "catalog", repo.ID, "error", cause)
}

// RefreshAll refreshes every enabled repository with bounded
// concurrency and returns per-catalog errors keyed by catalog id.
func (e *Engine) RefreshAll(ctx context.Context, repos []config.Repository) map[string]error {
	sem := make(chan struct{}, refreshWorkers)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[string]error)
	)

	for _, repo := range repos {
		if !repo.Enabled {
			continue
		}
		wg.Add(1)
		go func(repo config.Repository) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := e.Refresh(ctx, repo); err != nil {
				mu.Lock()
				errs[repo.ID] = err
				mu.Unlock()
			}
		}(repo)
	}
	wg.Wait()
	return errs
}

// AddCatalog subscribes a new catalog and performs its initial sync. A
// failed initial sync still leaves the catalog subscribed, marked
// unhealthy.
func (e *Engine) AddCatalog(ctx context.Context, repo config.Repository) error {
	return e.Refresh(ctx, repo)
}

// RemoveCatalog unsubscribes a catalog and drops its artifacts and
// installation records.
func (e *Engine) RemoveCatalog(id string) error {
	if err := e.store.DeleteCatalog(id); err != nil {
		return fmt.Errorf("removing catalog %q: %w", id, err)
	}
	e.logger.Info("catalog removed", "catalog", id)
	return nil
}
