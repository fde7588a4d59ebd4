// Package profile distills a user's list history into a taste profile:
// a handful of statistically distinctive seed titles with weights, a mean
// genre vector, and the watched set used to exclude known titles.
package profile

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
	"github.com/j-chowder/anime-recommendation-backend/internal/index"
	"github.com/j-chowder/anime-recommendation-backend/internal/relations"
)

const maxSeeds = 10

// Profile is request-scoped and discarded after the recommendation.
// SeedIDs and Weights are aligned by position.
type Profile struct {
	SeedIDs     []int64
	Weights     []float64
	GenreVector index.Vector
	Watched     map[int64]bool
}

type Builder struct {
	content  *index.ContentIndex
	resolver *relations.Resolver
	log      *zap.Logger
}

func NewBuilder(content *index.ContentIndex, resolver *relations.Resolver, log *zap.Logger) *Builder {
	return &Builder{content: content, resolver: resolver, log: log}
}

// Build selects seeds from the user's history and canonicalizes each one.
//
// When ratings carry signal (at least one non-zero rating and not all
// identical), seeds are the titles whose rating z-score clears the mean of
// the positive z-scores, scanned in the user's original list order and
// stopping at the first entry at or below the cutoff; each seed's weight is
// its z minus that cutoff. Without rating signal, the first 10 completed
// titles stand in with zero weights.
func (b *Builder) Build(ctx context.Context, completed, history []domain.UserListEntry) (*Profile, error) {
	if len(history) == 0 {
		return nil, domain.ErrNoHistory
	}

	watched := make(map[int64]bool, len(history))
	genreSets := make([][]string, len(history))
	for i, e := range history {
		watched[e.ID] = true
		genreSets[i] = e.Genres
	}

	var rated []domain.UserListEntry
	for _, e := range history {
		if e.Score != 0 {
			rated = append(rated, e)
		}
	}

	var seeds []int64
	var weights []float64
	if len(rated) > 0 && !allSameScore(rated) {
		seeds, weights = b.seedsByZScore(ctx, rated)
	} else {
		seeds, weights = b.seedsFromCompleted(ctx, completed)
	}
	if len(seeds) == 0 {
		return nil, domain.ErrNoUsableSeed
	}

	return &Profile{
		SeedIDs:     seeds,
		Weights:     weights,
		GenreVector: index.MeanVector(b.content.Vectorize(genreSets)),
		Watched:     watched,
	}, nil
}

func (b *Builder) seedsByZScore(ctx context.Context, rated []domain.UserListEntry) ([]int64, []float64) {
	var mean float64
	for _, e := range rated {
		mean += float64(e.Score)
	}
	mean /= float64(len(rated))

	var variance float64
	for _, e := range rated {
		d := float64(e.Score) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(rated)))

	zs := make([]float64, len(rated))
	var posSum float64
	var posN int
	for i, e := range rated {
		zs[i] = (float64(e.Score) - mean) / std
		if zs[i] > 0 {
			posSum += zs[i]
			posN++
		}
	}
	// ratings are not all identical, so std > 0 and at least one z is
	// positive
	cutoff := posSum / float64(posN)

	var seeds []int64
	var weights []float64
	for i, e := range rated {
		if len(seeds) >= maxSeeds || zs[i] <= cutoff {
			break
		}
		id, ok := b.canonicalize(ctx, e.ID)
		if !ok {
			continue
		}
		if containsID(seeds, id) {
			continue
		}
		seeds = append(seeds, id)
		weights = append(weights, zs[i]-cutoff)
	}
	return seeds, weights
}

func (b *Builder) seedsFromCompleted(ctx context.Context, completed []domain.UserListEntry) ([]int64, []float64) {
	var seeds []int64
	for _, e := range completed {
		if len(seeds) >= maxSeeds {
			break
		}
		id, ok := b.canonicalize(ctx, e.ID)
		if !ok {
			continue
		}
		if !containsID(seeds, id) {
			seeds = append(seeds, id)
		}
	}
	return seeds, make([]float64, len(seeds))
}

// canonicalize folds a watched id onto its adaptation family's catalog
// representative. Unresolvable titles are dropped, never fatal: the
// resolver has already done its cache bookkeeping either way.
func (b *Builder) canonicalize(ctx context.Context, id int64) (int64, bool) {
	canonical, err := b.resolver.Resolve(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrRelationNotFound) {
			b.log.Warn("seed resolution failed", zap.Int64("id", id), zap.Error(err))
		}
		return 0, false
	}
	return canonical, true
}

func allSameScore(entries []domain.UserListEntry) bool {
	for _, e := range entries[1:] {
		if e.Score != entries[0].Score {
			return false
		}
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
