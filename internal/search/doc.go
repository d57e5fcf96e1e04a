// Package search answers filtered, full-text, paginated artifact
// queries over the catalog index and ranks text matches with a custom
// relevance score combining match strength, popularity, rating, and
// recency.
package search
