package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agenthub-labs/agenthub/internal/store"
)

// Relevance weights. Name matches dominate, then tags, description,
// keywords; popularity, rating, and recency break the remaining ties.
const (
	nameWeight        = 10
	tagWeight         = 5
	descriptionWeight = 3
	keywordWeight     = 2
	recencyCeiling    = 5
	recencyDecayDays  = 30
)

// rankByRelevance sorts the fetched page by descending relevance score.
// Scores live in a parallel association, never on the artifact, and
// the sort is stable so equal scores keep the store's name order.
func (e *Engine) rankByRelevance(rows []store.Artifact, query string) []store.Artifact {
	queryLower := strings.ToLower(query)
	tokens := strings.Fields(queryLower)

	scores := make([]float64, len(rows))
	for i := range rows {
		scores[i] = e.score(&rows[i], queryLower, tokens)
	}

	type scored struct {
		artifact store.Artifact
		score    float64
	}
	paired := make([]scored, len(rows))
	for i, a := range rows {
		paired[i] = scored{artifact: a, score: scores[i]}
	}
	sort.SliceStable(paired, func(i, j int) bool {
		return paired[i].score > paired[j].score
	})

	out := make([]store.Artifact, len(paired))
	for i, p := range paired {
		out[i] = p.artifact
	}
	return out
}

func (e *Engine) score(a *store.Artifact, queryLower string, tokens []string) float64 {
	var score float64

	if strings.Contains(strings.ToLower(a.Name), queryLower) {
		score += nameWeight
	}

	for _, tag := range a.Tags {
		if containsAnyToken(tag, tokens) {
			score += tagWeight
		}
	}

	if strings.Contains(strings.ToLower(a.Description), queryLower) {
		score += descriptionWeight
	}

	for _, kw := range a.Keywords {
		if containsAnyToken(kw, tokens) {
			score += keywordWeight
		}
	}

	if a.Metadata != nil {
		if a.Metadata.Downloads > 0 {
			score += math.Log10(float64(a.Metadata.Downloads))
		}
		score += a.Metadata.Rating
		if a.Metadata.LastUpdated != "" {
			if updated, err := time.Parse(time.RFC3339, a.Metadata.LastUpdated); err == nil {
				days := e.now().Sub(updated).Hours() / 24
				score += math.Max(0, recencyCeiling-days/recencyDecayDays)
			}
		}
	}

	return score
}

func containsAnyToken(value string, tokens []string) bool {
	valueLower := strings.ToLower(value)
	for _, tok := range tokens {
		if strings.Contains(valueLower, tok) {
			return true
		}
	}
	return false
}
