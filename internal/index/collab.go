package index

import (
	"math"
	"sort"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// DefaultMinRatings is the ratings-coverage floor: anime rated fewer times
// than this carry too much noise and are dropped from the table entirely.
const DefaultMinRatings = 300

// Neighbor is one entry of an item's similarity row.
type Neighbor struct {
	ID    int64
	Score float64
}

// CollabIndex is the item-item rating-cosine table. Rows are dense over the
// filtered id space and pre-sorted descending. Read-only after build.
type CollabIndex struct {
	rows map[int64][]Neighbor
}

// BuildCollab filters out sparsely-rated anime, mean-centers each user's
// surviving ratings to cancel personal scale bias, and computes item-item
// cosine similarity over the centered columns.
func BuildCollab(ratings []domain.Rating, minRatings int) *CollabIndex {
	if minRatings <= 0 {
		minRatings = DefaultMinRatings
	}

	counts := map[int64]int{}
	for _, r := range ratings {
		counts[r.AnimeID]++
	}
	kept := map[int64]bool{}
	for id, n := range counts {
		if n >= minRatings {
			kept[id] = true
		}
	}

	// Per-user mean over the columns that survived the filter.
	userSum := map[int64]float64{}
	userN := map[int64]int{}
	for _, r := range ratings {
		if !kept[r.AnimeID] {
			continue
		}
		userSum[r.UserID] += r.Score
		userN[r.UserID]++
	}

	// Centered column vectors, one per anime, keyed by user.
	cols := make(map[int64]map[int64]float64, len(kept))
	for _, r := range ratings {
		if !kept[r.AnimeID] {
			continue
		}
		col, ok := cols[r.AnimeID]
		if !ok {
			col = map[int64]float64{}
			cols[r.AnimeID] = col
		}
		col[r.UserID] = r.Score - userSum[r.UserID]/float64(userN[r.UserID])
	}

	ids := make([]int64, 0, len(cols))
	norms := make(map[int64]float64, len(cols))
	for id, col := range cols {
		ids = append(ids, id)
		var n float64
		for _, v := range col {
			n += v * v
		}
		norms[id] = math.Sqrt(n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ix := &CollabIndex{rows: make(map[int64][]Neighbor, len(ids))}
	for _, a := range ids {
		row := make([]Neighbor, 0, len(ids)-1)
		for _, b := range ids {
			if a == b {
				continue
			}
			row = append(row, Neighbor{ID: b, Score: itemCosine(cols[a], cols[b], norms[a], norms[b])})
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].Score > row[j].Score })
		ix.rows[a] = row
	}
	return ix
}

func itemCosine(a, b map[int64]float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for user, v := range a {
		if w, ok := b[user]; ok {
			dot += v * w
		}
	}
	return dot / (na * nb)
}

func (ix *CollabIndex) Contains(id int64) bool {
	_, ok := ix.rows[id]
	return ok
}

// Row returns a copy of the id's similarity row sorted descending.
// Ids dropped by the coverage filter (or never rated) yield ErrNotInIndex;
// callers treat that as "no collaborative signal", not a failure.
func (ix *CollabIndex) Row(id int64) ([]Neighbor, error) {
	row, ok := ix.rows[id]
	if !ok {
		return nil, domain.ErrNotInIndex
	}
	out := make([]Neighbor, len(row))
	copy(out, row)
	return out, nil
}
