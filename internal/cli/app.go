package cli

import (
	"fmt"
	"log/slog"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/agenthub-labs/agenthub/internal/httpx"
	"github.com/agenthub-labs/agenthub/internal/installer"
	"github.com/agenthub-labs/agenthub/internal/search"
	"github.com/agenthub-labs/agenthub/internal/store"
	"github.com/agenthub-labs/agenthub/internal/sync"
	"github.com/agenthub-labs/agenthub/internal/update"
)

// app wires the engines a command needs on top of one open store.
type app struct {
	store     *store.Store
	secrets   *auth.FileStore
	resolver  *auth.Resolver
	fetcher   *httpx.Fetcher
	syncer    *sync.Engine
	searcher  *search.Engine
	updates   *update.Engine
	installer *installer.Installer
}

// openApp loads config and opens the catalog database. Callers must
// Close.
func openApp() (*app, error) {
	config.Load()

	st, err := store.Open(config.DataDir())
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	secrets := auth.NewFileStore(config.Dir())
	resolver := auth.NewResolver(secrets)
	fetcher := httpx.New(httpx.WithLogger(slog.Default()))

	return &app{
		store:     st,
		secrets:   secrets,
		resolver:  resolver,
		fetcher:   fetcher,
		syncer:    sync.New(st, fetcher, resolver),
		searcher:  search.New(st),
		updates:   update.New(st, fetcher, resolver),
		installer: installer.New(st, fetcher, resolver, config.InstallRoot()),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// authFor looks up the configured auth for a subscribed catalog.
func (a *app) authFor(catalogID string) *auth.Config {
	repo, err := config.FindRepository(catalogID)
	if err != nil || repo == nil {
		return nil
	}
	return repo.Auth
}
