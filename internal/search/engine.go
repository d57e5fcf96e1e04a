package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/agenthub-labs/agenthub/internal/store"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 50

// Query is one search request. Multi-valued filters OR within the
// field and AND across fields.
type Query struct {
	Text         string
	Types        []string
	Categories   []string
	Difficulties []string
	Catalogs     []string
	Languages    []string
	Frameworks   []string
	Tags         []string
	SortBy       store.Sort
	Page         int
	PageSize     int
}

// Artifact is a search hit: the stored artifact annotated with the
// derived installed state.
type Artifact struct {
	store.Artifact
	Installed bool
}

// Result is one page of hits. Total counts every row matching the
// filters, independent of pagination.
type Result struct {
	Artifacts []Artifact
	Total     int
	Page      int
	PageSize  int
	HasMore   bool
}

// Engine executes queries against the catalog store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New returns an Engine over the given store.
func New(st *store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// Search runs the query and returns the requested page.
func (e *Engine) Search(q Query) (*Result, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	offset := (page - 1) * pageSize

	match := ftsExpression(q.Text)

	rows, total, err := e.store.SearchArtifacts(store.Query{
		Match: match,
		Filter: store.Filter{
			Types:        q.Types,
			Categories:   q.Categories,
			Difficulties: q.Difficulties,
			Catalogs:     q.Catalogs,
			Languages:    q.Languages,
			Frameworks:   q.Frameworks,
			Tags:         q.Tags,
		},
		Sort:   q.SortBy,
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}

	// Relevance scoring only applies to text-search mode; it re-ranks
	// the fetched page without ever mutating the artifacts themselves.
	if match != "" && (q.SortBy == "" || q.SortBy == store.SortRelevance) {
		rows = e.rankByRelevance(rows, q.Text)
	}

	artifacts, err := e.markInstalled(rows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifacts: artifacts,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		HasMore:   offset+len(artifacts) < total,
	}, nil
}

// GetArtifact returns one artifact with its installed flag.
func (e *Engine) GetArtifact(catalogID, artifactID string) (*Artifact, error) {
	a, err := e.store.GetArtifact(catalogID, artifactID)
	if err != nil {
		return nil, err
	}
	annotated, err := e.markInstalled([]store.Artifact{*a})
	if err != nil {
		return nil, err
	}
	return &annotated[0], nil
}

// Categories lists every distinct category in the index.
func (e *Engine) Categories() ([]string, error) {
	return e.store.Categories()
}

// Tags lists the union of all artifact tags.
func (e *Engine) Tags() ([]string, error) {
	return e.store.Tags()
}

// ftsExpression tokenizes free text into an FTS5 prefix-match
// expression, ORing each token as a quoted prefix term. Empty input
// yields "" which selects the plain filtered scan.
func ftsExpression(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " OR ")
}

func (e *Engine) markInstalled(rows []store.Artifact) ([]Artifact, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	pairs := make([][2]string, len(rows))
	for i, a := range rows {
		pairs[i] = [2]string{a.CatalogID, a.ID}
	}
	installed, err := e.store.InstalledKeys(pairs)
	if err != nil {
		return nil, fmt.Errorf("marking installed state: %w", err)
	}

	out := make([]Artifact, len(rows))
	for i, a := range rows {
		out[i] = Artifact{Artifact: a, Installed: installed[a.Key()]}
	}
	return out, nil
}
