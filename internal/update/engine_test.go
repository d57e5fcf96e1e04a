package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agenthub-labs/agenthub/internal/httpx"
	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/agenthub-labs/agenthub/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.UpsertCatalog(store.Catalog{
		ID:      "acme",
		URL:     "https://example.com/catalog.json",
		Enabled: true,
		Metadata: manifest.Metadata{
			ID:         "acme",
			Name:       "Acme",
			Repository: manifest.Repository{Type: "generic", URL: "https://example.com"},
		},
	}); err != nil {
		t.Fatal(err)
	}
	return st
}

func artifactWithVersion(id, version, sourceURL string) store.Artifact {
	a := store.Artifact{CatalogID: "acme", SourceURL: sourceURL}
	a.ID = id
	a.Type = manifest.TypePrompt
	a.Name = id
	a.Path = "prompts/" + id + ".md"
	a.Version = version
	return a
}

func TestCheckForUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "CHANGELOG.md") {
			lines := make([]string, 30)
			for i := range lines {
				lines[i] = "change line"
			}
			w.Write([]byte(strings.Join(lines, "\n")))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	st := seedStore(t)
	arts := []store.Artifact{
		artifactWithVersion("fresh", "2.0.0", srv.URL+"/prompts/fresh.md"),
		artifactWithVersion("stale", "1.0.0", srv.URL+"/prompts/stale.md"),
	}
	if err := st.ReplaceArtifacts("acme", arts); err != nil {
		t.Fatal(err)
	}

	for _, inst := range []store.Installation{
		{ArtifactID: "fresh", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/fresh.md"},
		{ArtifactID: "stale", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/stale.md"},
		{ArtifactID: "orphan", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/orphan.md"},
	} {
		if _, err := st.UpsertInstallation(inst); err != nil {
			t.Fatal(err)
		}
	}

	e := New(st, httpx.New(), nil)
	updates, err := e.CheckForUpdates(context.Background(), nil)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}

	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	u := updates[0]
	if u.Installation.ArtifactID != "fresh" || u.LatestVersion != "2.0.0" {
		t.Errorf("update = %+v", u)
	}
	if got := len(strings.Split(u.Changelog, "\n")); got != 20 {
		t.Errorf("changelog lines = %d, want 20", got)
	}
}

func TestChangelogFailureIsSwallowed(t *testing.T) {
	st := seedStore(t)
	if err := st.ReplaceArtifacts("acme", []store.Artifact{
		artifactWithVersion("a", "2.0.0", "http://127.0.0.1:1/prompts/a.md"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertInstallation(store.Installation{
		ArtifactID: "a", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/a.md",
	}); err != nil {
		t.Fatal(err)
	}

	// Zero retries so the unreachable changelog host fails fast.
	fetcher := httpx.New(httpx.WithRetryPolicy(httpx.RetryPolicy{MaxRetries: 0, InitialDelay: 0, MaxDelay: 0, Multiplier: 1}))
	e := New(st, fetcher, nil)
	updates, err := e.CheckForUpdates(context.Background(), nil)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].Changelog != "" {
		t.Errorf("changelog = %q, want empty on fetch failure", updates[0].Changelog)
	}
}

func TestStatusesAnnotatesUpdatesAndOrphans(t *testing.T) {
	st := seedStore(t)
	if err := st.ReplaceArtifacts("acme", []store.Artifact{
		artifactWithVersion("a", "2.0.0", "https://example.com/a.md"),
	}); err != nil {
		t.Fatal(err)
	}
	for _, inst := range []store.Installation{
		{ArtifactID: "a", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/a.md"},
		{ArtifactID: "orphan", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/orphan.md"},
	} {
		if _, err := st.UpsertInstallation(inst); err != nil {
			t.Fatal(err)
		}
	}

	e := New(st, nil, nil)
	updates, err := e.CheckForUpdates(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	statuses, err := e.Statuses(updates)
	if err != nil {
		t.Fatalf("Statuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("statuses = %d, want 2", len(statuses))
	}

	byID := map[string]Status{}
	for _, s := range statuses {
		byID[s.ArtifactID] = s
	}
	if !byID["a"].UpdateAvailable || byID["a"].NewVersion != "2.0.0" {
		t.Errorf("status a = %+v", byID["a"])
	}
	if byID["orphan"].UpdateAvailable || byID["orphan"].Artifact != nil {
		t.Errorf("status orphan = %+v", byID["orphan"])
	}
}
