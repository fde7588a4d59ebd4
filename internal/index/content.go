package index

import (
	"math"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
)

// Vector is a sparse genre term vector keyed by vocabulary index.
type Vector map[int]float64

// ContentIndex holds TF-IDF genre vectors for every catalog entry and the
// pairwise cosine table between them. Built once per catalog load and
// read-only afterwards.
type ContentIndex struct {
	vocab   map[string]int
	idf     []float64
	vectors map[int64]Vector
	sims    map[int64]map[int64]float64
}

// BuildContent fixes the genre vocabulary from the catalog, weights each
// entry's genre set with smooth idf, l2-normalizes, and fills the full
// pairwise similarity table.
func BuildContent(c *catalog.Catalog) *ContentIndex {
	animes := c.All()

	ci := &ContentIndex{
		vocab:   make(map[string]int),
		vectors: make(map[int64]Vector, len(animes)),
		sims:    make(map[int64]map[int64]float64, len(animes)),
	}

	// Vocabulary and document frequencies.
	df := []int{}
	for _, a := range animes {
		seen := map[int]bool{}
		for _, g := range a.Genres {
			term, ok := ci.vocab[g]
			if !ok {
				term = len(ci.vocab)
				ci.vocab[g] = term
				df = append(df, 0)
			}
			if !seen[term] {
				df[term]++
				seen[term] = true
			}
		}
	}

	n := float64(len(animes))
	ci.idf = make([]float64, len(df))
	for term, count := range df {
		ci.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	for _, a := range animes {
		ci.vectors[a.ID] = ci.vectorizeOne(a.Genres)
	}

	// Full pairwise table. Self-similarity pinned to 1 so entries with an
	// empty genre set still satisfy the maximum-on-diagonal guarantee.
	for _, a := range animes {
		row := make(map[int64]float64, len(animes))
		va := ci.vectors[a.ID]
		for _, b := range animes {
			if a.ID == b.ID {
				row[b.ID] = 1
				continue
			}
			row[b.ID] = Cosine(va, ci.vectors[b.ID])
		}
		ci.sims[a.ID] = row
	}

	return ci
}

// Similarity returns the pairwise content similarity, 0 when either id is
// unknown.
func (ci *ContentIndex) Similarity(a, b int64) float64 {
	row, ok := ci.sims[a]
	if !ok {
		return 0
	}
	return row[b]
}

// Vector returns the catalog entry's genre vector.
func (ci *ContentIndex) Vector(id int64) (Vector, bool) {
	v, ok := ci.vectors[id]
	return v, ok
}

// Vectorize projects genre sets into the index's vocabulary space.
// Tokens outside the build-time vocabulary are ignored.
func (ci *ContentIndex) Vectorize(genreSets [][]string) []Vector {
	out := make([]Vector, len(genreSets))
	for i, set := range genreSets {
		out[i] = ci.vectorizeOne(set)
	}
	return out
}

func (ci *ContentIndex) vectorizeOne(genres []string) Vector {
	v := Vector{}
	for _, g := range genres {
		term, ok := ci.vocab[g]
		if !ok {
			continue
		}
		v[term] += ci.idf[term]
	}

	// l2 normalize so cosine reduces to a dot product
	var norm float64
	for _, w := range v {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for term, w := range v {
			v[term] = w / norm
		}
	}
	return v
}

// Cosine computes cosine similarity between two sparse vectors.
func Cosine(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot, na, nb float64
	for term, w := range a {
		dot += w * b[term]
		na += w * w
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MeanVector averages vectors element-wise. Used for the user genre profile.
func MeanVector(vs []Vector) Vector {
	out := Vector{}
	if len(vs) == 0 {
		return out
	}
	for _, v := range vs {
		for term, w := range v {
			out[term] += w
		}
	}
	n := float64(len(vs))
	for term := range out {
		out[term] /= n
	}
	return out
}
