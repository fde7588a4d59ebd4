// Package recommend blends content similarity, collaborative similarity
// and popularity into ranked anime recommendations, behind the three entry
// points: by title, by genre, by user.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
	"github.com/j-chowder/anime-recommendation-backend/internal/index"
	"github.com/j-chowder/anime-recommendation-backend/internal/profile"
	"github.com/j-chowder/anime-recommendation-backend/internal/search"
)

const (
	candidatePool   = 100
	genreResultCap  = 100
	genreScoreFloor = 7.0

	popularityWeight = 0.04
	collabWeight     = 1.2
)

// ListFetcher pulls a user's history from the list-tracking service.
type ListFetcher interface {
	UserList(ctx context.Context, user string, completedOnly bool) ([]domain.UserListEntry, error)
}

// GenreLister exposes the catalog's known genre tokens.
type GenreLister interface {
	AllGenres(ctx context.Context) ([]string, error)
}

// ResultCache holds ranked lists between requests. May be nil.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.RankedRecommendation, bool, error)
	Set(ctx context.Context, key string, recs []domain.RankedRecommendation) error
}

type Deps struct {
	Catalog  *catalog.Catalog
	Content  *index.ContentIndex
	Collab   *index.CollabIndex
	Search   *search.Index
	Profiles *profile.Builder
	Lists    ListFetcher
	Genres   GenreLister
	Cache    ResultCache
	Log      *zap.Logger
}

type Service struct {
	deps Deps
	log  *zap.Logger
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps, log: deps.Log}
}

// TitleResult carries either recommendations or, when the exact lookup
// missed, "did you mean" suggestions.
type TitleResult struct {
	Recommendations []domain.RankedRecommendation `json:"recommendations,omitempty"`
	Suggestions     *domain.SuggestionSet         `json:"suggestions,omitempty"`
	CacheHit        bool                          `json:"-"`
}

// ByTitle recommends titles similar to the named one. On an exact-match
// miss it returns substring and fuzzy suggestions instead.
func (s *Service) ByTitle(ctx context.Context, name string) (*TitleResult, error) {
	id, err := s.deps.Search.ResolveExact(name)
	if errors.Is(err, domain.ErrNotFound) {
		return &TitleResult{Suggestions: &domain.SuggestionSet{
			Contains: search.SortBySimilarity(s.deps.Search.ResolveSubstring(name)),
			Fuzzy:    s.deps.Search.ResolveFuzzy(name),
		}}, nil
	}
	if err != nil {
		return nil, err
	}

	key := "rec:title:" + name
	if recs, ok := s.cached(ctx, key); ok {
		return &TitleResult{Recommendations: recs, CacheHit: true}, nil
	}

	row, err := s.deps.Collab.Row(id)
	if errors.Is(err, domain.ErrNotInIndex) {
		// the title never cleared the ratings floor: no collaborative
		// signal, nothing to rank
		s.log.Debug("title has no collaborative row", zap.Int64("id", id))
		return &TitleResult{Recommendations: []domain.RankedRecommendation{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(row) > candidatePool {
		row = row[:candidatePool]
	}

	recs := make([]domain.RankedRecommendation, 0, len(row))
	for _, n := range row {
		a, ok := s.deps.Catalog.Get(n.ID)
		if !ok {
			continue
		}
		score := a.Score*popularityWeight +
			n.Score*collabWeight +
			s.deps.Content.Similarity(n.ID, id)
		recs = append(recs, ranked(a, score))
	}
	sortRanked(recs)

	s.store(ctx, key, recs)
	return &TitleResult{Recommendations: recs}, nil
}

// ByGenre filters the catalog to entries tagged with every requested genre,
// keeps only well-scored ones, and orders by popularity. No similarity
// scoring involved.
func (s *Service) ByGenre(ctx context.Context, genres []string) ([]domain.RankedRecommendation, error) {
	tokens := make([]string, 0, len(genres))
	for _, g := range genres {
		if t := catalog.NormalizeGenre(g); t != "" {
			tokens = append(tokens, t)
		}
	}

	key := "rec:genre:" + strings.Join(tokens, "+")
	if recs, ok := s.cached(ctx, key); ok {
		return recs, nil
	}

	var recs []domain.RankedRecommendation
	for _, a := range s.deps.Catalog.All() {
		if a.Score < genreScoreFloor || !hasAllGenres(a, tokens) {
			continue
		}
		recs = append(recs, ranked(a, a.Score))
	}
	sortRanked(recs)
	if len(recs) > genreResultCap {
		recs = recs[:genreResultCap]
	}

	s.store(ctx, key, recs)
	return recs, nil
}

// UserResult is the by-user response.
type UserResult struct {
	Recommendations []domain.RankedRecommendation `json:"recommendations"`
	CacheHit        bool                          `json:"-"`
}

// RecommendUser fetches the user's lists and ranks unwatched titles
// against their taste profile.
func (s *Service) RecommendUser(ctx context.Context, user string) (*UserResult, error) {
	key := "rec:user:" + user
	if recs, ok := s.cached(ctx, key); ok {
		return &UserResult{Recommendations: recs, CacheHit: true}, nil
	}

	completed, err := s.deps.Lists.UserList(ctx, user, true)
	if err != nil {
		return nil, fmt.Errorf("fetch completed list for %s: %w", user, err)
	}
	history, err := s.deps.Lists.UserList(ctx, user, false)
	if err != nil {
		return nil, fmt.Errorf("fetch full list for %s: %w", user, err)
	}

	recs, err := s.ByUser(ctx, completed, history)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, recs)
	return &UserResult{Recommendations: recs}, nil
}

// ByUser builds the taste profile and blends per-seed collaborative rows
// with the user's genre profile. Each seed's row is boosted by ln(1+weight)
// and the rows collapse to the best score seen per candidate; watched
// titles never come back.
func (s *Service) ByUser(ctx context.Context, completed, history []domain.UserListEntry) ([]domain.RankedRecommendation, error) {
	prof, err := s.deps.Profiles.Build(ctx, completed, history)
	if err != nil {
		return nil, err
	}

	best := map[int64]float64{}
	for i, seed := range prof.SeedIDs {
		row, err := s.deps.Collab.Row(seed)
		if errors.Is(err, domain.ErrNotInIndex) {
			// seed was filtered out of the ratings matrix: no signal
			s.log.Debug("seed has no collaborative row", zap.Int64("seed", seed))
			continue
		}
		if err != nil {
			return nil, err
		}
		boost := math.Log(1 + prof.Weights[i])
		for _, n := range row {
			if prof.Watched[n.ID] {
				continue
			}
			v := n.Score + boost
			if cur, seen := best[n.ID]; !seen || v > cur {
				best[n.ID] = v
			}
		}
	}

	type candidate struct {
		id     int64
		collab float64
	}
	candidates := make([]candidate, 0, len(best))
	for id, v := range best {
		candidates = append(candidates, candidate{id: id, collab: v})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].collab != candidates[j].collab {
			return candidates[i].collab > candidates[j].collab
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > candidatePool {
		candidates = candidates[:candidatePool]
	}

	recs := make([]domain.RankedRecommendation, 0, len(candidates))
	for _, c := range candidates {
		a, ok := s.deps.Catalog.Get(c.id)
		if !ok {
			continue
		}
		genreSim := 0.0
		if v, ok := s.deps.Content.Vector(c.id); ok {
			genreSim = index.Cosine(prof.GenreVector, v)
		}
		score := a.Score*popularityWeight + c.collab*collabWeight + genreSim
		recs = append(recs, ranked(a, score))
	}
	sortRanked(recs)
	return recs, nil
}

// AllGenres lists every genre token known to the catalog, for the frontend.
func (s *Service) AllGenres(ctx context.Context) ([]string, error) {
	if s.deps.Genres == nil {
		return nil, nil
	}
	return s.deps.Genres.AllGenres(ctx)
}

func (s *Service) cached(ctx context.Context, key string) ([]domain.RankedRecommendation, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	recs, found, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return recs, found
}

func (s *Service) store(ctx context.Context, key string, recs []domain.RankedRecommendation) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, recs); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func ranked(a domain.Anime, score float64) domain.RankedRecommendation {
	return domain.RankedRecommendation{
		ID:          a.ID,
		Name:        a.Name,
		Image:       a.Image,
		EnglishName: a.EnglishName,
		OtherName:   a.OtherName,
		Synopsis:    a.Synopsis,
		Genres:      a.Genres,
		Score:       math.Round(score*1000) / 1000,
	}
}

func sortRanked(recs []domain.RankedRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
}

func hasAllGenres(a domain.Anime, tokens []string) bool {
	for _, t := range tokens {
		found := false
		for _, g := range a.Genres {
			if g == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
