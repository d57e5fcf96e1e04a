package store

import (
	"fmt"
	"strings"
)

// Sort selects the ORDER BY applied before pagination.
type Sort string

// Sort modes. SortRelevance orders by name; the search engine's scoring
// pass re-ranks the fetched page.
const (
	SortRelevance Sort = "relevance"
	SortRating    Sort = "rating"
	SortDownloads Sort = "downloads"
	SortUpdated   Sort = "updated"
)

// Filter restricts an artifact query. Values within one field are OR'd;
// the fields themselves compose with AND. The array-valued fields
// (Languages, Frameworks, Tags) match by containment against the
// serialized column.
type Filter struct {
	Types        []string
	Categories   []string
	Difficulties []string
	Catalogs     []string
	Languages    []string
	Frameworks   []string
	Tags         []string
}

// Query is one artifact search executed against the store. Match, when
// non-empty, is an FTS5 expression joined against the text index.
type Query struct {
	Match  string
	Filter Filter
	Sort   Sort
	Limit  int
	Offset int
}

// predicate accumulates parameterized WHERE conditions. Filter values
// are never interpolated into query text.
type predicate struct {
	conds []string
	args  []any
}

func (p *predicate) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := strings.Repeat("?,", len(values))
	p.conds = append(p.conds, fmt.Sprintf("%s IN (%s)", column, placeholders[:len(placeholders)-1]))
	for _, v := range values {
		p.args = append(p.args, v)
	}
}

// containsAny matches JSON-array columns by substring containment of
// the quoted element.
func (p *predicate) containsAny(column string, values []string) {
	if len(values) == 0 {
		return
	}
	likes := make([]string, len(values))
	for i, v := range values {
		likes[i] = column + " LIKE ?"
		p.args = append(p.args, `%"`+v+`"%`)
	}
	p.conds = append(p.conds, "("+strings.Join(likes, " OR ")+")")
}

func (p *predicate) clause() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(p.conds, " AND ")
}

func buildPredicate(f Filter) *predicate {
	p := &predicate{}
	p.in("a.type", f.Types)
	p.in("a.category", f.Categories)
	p.in("a.difficulty", f.Difficulties)
	p.in("a.catalog_id", f.Catalogs)
	p.containsAny("a.language", f.Languages)
	p.containsAny("a.framework", f.Frameworks)
	p.containsAny("a.tags", f.Tags)
	return p
}

// SearchArtifacts executes a filtered (and optionally full-text) query.
// It returns the requested page plus the total count of rows matching
// the same predicate without pagination.
func (s *Store) SearchArtifacts(q Query) ([]Artifact, int, error) {
	pred := buildPredicate(q.Filter)

	var base string
	var baseArgs []any
	if q.Match != "" {
		base = `FROM artifacts a
			INNER JOIN artifacts_fts fts ON a.rowid = fts.rowid
			WHERE artifacts_fts MATCH ?` + pred.clause()
		baseArgs = append([]any{q.Match}, pred.args...)
	} else {
		base = `FROM artifacts a WHERE 1=1` + pred.clause()
		baseArgs = pred.args
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) `+base, baseArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting search results: %w", err)
	}

	sel := `SELECT ` + artifactColumns + ` ` + base + orderClause(q.Sort) + ` LIMIT ? OFFSET ?`
	args := append(append([]any{}, baseArgs...), q.Limit, q.Offset)

	rows, err := s.db.Query(sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, 0, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, total, rows.Err()
}

func orderClause(s Sort) string {
	switch s {
	case SortRating:
		return ` ORDER BY json_extract(a.metadata, '$.rating') DESC NULLS LAST`
	case SortDownloads:
		return ` ORDER BY json_extract(a.metadata, '$.downloads') DESC NULLS LAST`
	case SortUpdated:
		return ` ORDER BY json_extract(a.metadata, '$.lastUpdated') DESC NULLS LAST`
	default:
		return ` ORDER BY a.name ASC`
	}
}
