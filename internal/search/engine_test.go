package search

import (
	"testing"
	"time"

	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/agenthub-labs/agenthub/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
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
			Repository: manifest.Repository{Type: "github", URL: "https://github.com/acme/catalog"},
		},
	}); err != nil {
		t.Fatal(err)
	}
	return New(st), st
}

func seedArtifact(id, name, typ string) store.Artifact {
	a := store.Artifact{CatalogID: "acme", SourceURL: "https://raw.example.com/" + id}
	a.ID = id
	a.Type = typ
	a.Name = name
	a.Description = "description of " + name
	a.Path = "x/" + id + ".md"
	a.Version = "1.0.0"
	a.Category = "general"
	return a
}

func TestSearchNoFiltersTotalEqualsRowCount(t *testing.T) {
	e, st := newTestEngine(t)
	arts := []store.Artifact{
		seedArtifact("a", "Alpha", manifest.TypePrompt),
		seedArtifact("b", "Beta", manifest.TypeTask),
		seedArtifact("c", "Gamma", manifest.TypePrompt),
	}
	if err := st.ReplaceArtifacts("acme", arts); err != nil {
		t.Fatal(err)
	}

	res, err := e.Search(Query{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	if res.HasMore {
		t.Error("HasMore should be false for a single page")
	}

	res, err = e.Search(Query{Types: []string{manifest.TypePrompt}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("prompt Total = %d, want 2", res.Total)
	}
}

func TestSearchPaginationReproducesFullResult(t *testing.T) {
	e, st := newTestEngine(t)
	var arts []store.Artifact
	names := []string{"Ant", "Bee", "Cat", "Dog", "Elk", "Fox", "Gnu"}
	for _, n := range names {
		arts = append(arts, seedArtifact("id-"+n, n, manifest.TypePrompt))
	}
	if err := st.ReplaceArtifacts("acme", arts); err != nil {
		t.Fatal(err)
	}

	var collected []string
	for page := 1; ; page++ {
		res, err := e.Search(Query{Page: page, PageSize: 3})
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range res.Artifacts {
			collected = append(collected, a.Name)
		}
		if !res.HasMore {
			if page != 3 {
				t.Errorf("HasMore false on page %d, want 3", page)
			}
			break
		}
	}

	if len(collected) != len(names) {
		t.Fatalf("collected %v, want %d names exactly once", collected, len(names))
	}
	seen := map[string]int{}
	for _, n := range collected {
		seen[n]++
	}
	for _, n := range names {
		if seen[n] != 1 {
			t.Errorf("name %q appeared %d times", n, seen[n])
		}
	}
}

func TestRelevanceNameBeatsKeyword(t *testing.T) {
	e, st := newTestEngine(t)

	nameHit := seedArtifact("name-hit", "refactor", manifest.TypePrompt)
	nameHit.Description = "something else"
	keywordHit := seedArtifact("keyword-hit", "aaa-first-alphabetically", manifest.TypePrompt)
	keywordHit.Description = "something else"
	keywordHit.Keywords = []string{"refactor"}

	if err := st.ReplaceArtifacts("acme", []store.Artifact{nameHit, keywordHit}); err != nil {
		t.Fatal(err)
	}

	res, err := e.Search(Query{Text: "refactor"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("hits = %d, want 2", len(res.Artifacts))
	}
	if res.Artifacts[0].ID != "name-hit" {
		t.Errorf("top hit = %q, want name-hit (name match outranks keyword match)", res.Artifacts[0].ID)
	}
}

func TestRelevanceBoosts(t *testing.T) {
	e, st := newTestEngine(t)
	fixed := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	popular := seedArtifact("popular", "deploy helper", manifest.TypeTask)
	popular.Metadata = &manifest.ArtifactStats{
		Downloads:   10000,
		Rating:      4.5,
		LastUpdated: fixed.Add(-24 * time.Hour).Format(time.RFC3339),
	}
	obscure := seedArtifact("obscure", "deploy assistant", manifest.TypeTask)

	if err := st.ReplaceArtifacts("acme", []store.Artifact{obscure, popular}); err != nil {
		t.Fatal(err)
	}

	res, err := e.Search(Query{Text: "deploy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("hits = %d, want 2", len(res.Artifacts))
	}
	if res.Artifacts[0].ID != "popular" {
		t.Errorf("top hit = %q, want popular (downloads/rating/recency boosts)", res.Artifacts[0].ID)
	}
}

func TestSearchMarksInstalled(t *testing.T) {
	e, st := newTestEngine(t)
	arts := []store.Artifact{
		seedArtifact("a", "Alpha", manifest.TypePrompt),
		seedArtifact("b", "Beta", manifest.TypePrompt),
	}
	if err := st.ReplaceArtifacts("acme", arts); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertInstallation(store.Installation{
		ArtifactID: "a", CatalogID: "acme", Version: "1.0.0", InstalledPath: "/x/a.md",
	}); err != nil {
		t.Fatal(err)
	}

	res, err := e.Search(Query{})
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]bool{}
	for _, a := range res.Artifacts {
		byID[a.ID] = a.Installed
	}
	if !byID["a"] {
		t.Error("artifact a should be marked installed")
	}
	if byID["b"] {
		t.Error("artifact b should not be marked installed")
	}
}

func TestFtsExpression(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"deploy", `"deploy"*`},
		{"go  deploy", `"go"* OR "deploy"*`},
		{`odd"quote`, `"odd""quote"*`},
	}
	for _, tt := range tests {
		if got := ftsExpression(tt.text); got != tt.want {
			t.Errorf("ftsExpression(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
