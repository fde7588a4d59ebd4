// Package search resolves user-typed titles against the catalog: exact
// match first, then substring and fuzzy lookups as fallbacks for
// "did you mean" suggestions.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

const (
	perFieldCap    = 5
	fuzzySlots     = 5
	fuzzyThreshold = 70
)

// nameFields is the lookup priority: romaji name, then english, then
// the alternate name.
var nameFields = []func(domain.Anime) string{
	func(a domain.Anime) string { return a.Name },
	func(a domain.Anime) string { return a.EnglishName },
	func(a domain.Anime) string { return a.OtherName },
}

type Index struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Index {
	return &Index{catalog: c}
}

// ResolveExact returns the id of the first entry whose name matches
// exactly, trying each name field across the whole catalog before falling
// back to the next field. ErrNotFound when all three fields miss.
func (ix *Index) ResolveExact(name string) (int64, error) {
	for _, field := range nameFields {
		for _, a := range ix.catalog.All() {
			if field(a) == name {
				return a.ID, nil
			}
		}
	}
	return 0, domain.ErrNotFound
}

// ResolveSubstring matches the query case-insensitively against each name
// field, keeping the top 5 most popular hits per field. An entry already
// matched on an earlier field is not reported again for a later one.
// Similarity carries the entry's popularity score; results come back in
// discovery order, callers sort with SortBySimilarity.
func (ix *Index) ResolveSubstring(query string) []domain.Suggestion {
	q := strings.ToLower(query)
	seen := map[int64]bool{}
	var out []domain.Suggestion

	for _, field := range nameFields {
		var hits []domain.Anime
		for _, a := range ix.catalog.All() {
			if strings.Contains(strings.ToLower(field(a)), q) {
				hits = append(hits, a)
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
		if len(hits) > perFieldCap {
			hits = hits[:perFieldCap]
		}
		for _, a := range hits {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, domain.Suggestion{Name: field(a), Similarity: a.Score})
		}
	}
	return out
}

// ResolveFuzzy scores every name field of every entry against the query
// with an edit-distance ratio (0-100) and keeps the 5 best distinct
// strings, insertion-sorted as they are discovered. Only those at or
// above the 70 threshold survive.
func (ix *Index) ResolveFuzzy(query string) []domain.Suggestion {
	slots := make([]domain.Suggestion, fuzzySlots)

	for _, field := range nameFields {
		for _, a := range ix.catalog.All() {
			insertFuzzy(slots, domain.Suggestion{Name: field(a), Similarity: ratio(field(a), query)})
		}
	}

	var out []domain.Suggestion
	for _, s := range slots {
		if s.Similarity >= fuzzyThreshold {
			out = append(out, s)
		}
	}
	return out
}

// insertFuzzy keeps slots ordered best-first: the candidate lands at the
// first slot it beats, pushing the tail out. Ties keep the earlier
// discovery; an identical (name, score) pair is never inserted twice.
func insertFuzzy(slots []domain.Suggestion, cand domain.Suggestion) {
	for _, s := range slots {
		if s == cand {
			return
		}
	}
	for i := range slots {
		if slots[i].Similarity < cand.Similarity {
			copy(slots[i+1:], slots[i:len(slots)-1])
			slots[i] = cand
			return
		}
	}
}

// ratio is a Levenshtein-based similarity on a 0-100 scale.
func ratio(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la+lb == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return math.Round(100 * float64(la+lb-d) / float64(la+lb))
}

// SortBySimilarity orders suggestions descending with an insertion sort;
// equal scores keep their first-seen order.
func SortBySimilarity(suggestions []domain.Suggestion) []domain.Suggestion {
	out := make([]domain.Suggestion, len(suggestions))
	copy(out, suggestions)
	for i := 1; i < len(out); i++ {
		key := out[i]
		j := i - 1
		for j >= 0 && key.Similarity > out[j].Similarity {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = key
	}
	return out
}
