package recommend

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
	"github.com/j-chowder/anime-recommendation-backend/internal/index"
	"github.com/j-chowder/anime-recommendation-backend/internal/profile"
	"github.com/j-chowder/anime-recommendation-backend/internal/relations"
	"github.com/j-chowder/anime-recommendation-backend/internal/search"
)

type nilStore struct{}

func (nilStore) GroupByMember(context.Context, int64) (*relations.RelationGroup, error) {
	return nil, nil
}
func (nilStore) GroupBySource(context.Context, relations.SourceID) (*relations.RelationGroup, error) {
	return nil, nil
}
func (nilStore) Insert(context.Context, *relations.RelationGroup) error          { return nil }
func (nilStore) AppendMembers(context.Context, relations.SourceID, []int64) error { return nil }

type downAPI struct{}

func (downAPI) AnimeRelations(context.Context, int64) ([]relations.Relation, error) {
	return nil, domain.ErrUpstreamUnavailable
}
func (downAPI) MangaRelations(context.Context, int64) ([]relations.Relation, error) {
	return nil, domain.ErrUpstreamUnavailable
}

type fakeLists struct {
	completed []domain.UserListEntry
	history   []domain.UserListEntry
}

func (f *fakeLists) UserList(_ context.Context, _ string, completedOnly bool) ([]domain.UserListEntry, error) {
	if completedOnly {
		return f.completed, nil
	}
	return f.history, nil
}

type mapCache struct {
	data map[string][]domain.RankedRecommendation
	hits int
}

func (c *mapCache) Get(_ context.Context, key string) ([]domain.RankedRecommendation, bool, error) {
	recs, ok := c.data[key]
	if ok {
		c.hits++
	}
	return recs, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, recs []domain.RankedRecommendation) error {
	c.data[key] = recs
	return nil
}

func testService(lists ListFetcher, cache ResultCache) *Service {
	cat := catalog.New([]domain.Anime{
		{ID: 1, Name: "Naruto", Genres: []string{"Action", "Adventure"}, Score: 7.9},
		{ID: 2, Name: "Bleach", Genres: []string{"Action", "Adventure"}, Score: 7.2},
		{ID: 3, Name: "Monster", Genres: []string{"Drama", "Mystery"}, Score: 8.8},
		{ID: 4, Name: "K-On!", Genres: []string{"Music", "Comedy"}, Score: 6.5},
		{ID: 5, Name: "Gintama", Genres: []string{"Action", "Comedy"}, Score: 8.9},
	})
	content := index.BuildContent(cat)

	// four raters covering every title so nothing drops at the floor
	ratings := []domain.Rating{
		{UserID: 1, AnimeID: 1, Score: 9}, {UserID: 1, AnimeID: 2, Score: 8},
		{UserID: 1, AnimeID: 3, Score: 4}, {UserID: 1, AnimeID: 5, Score: 8},
		{UserID: 2, AnimeID: 1, Score: 8}, {UserID: 2, AnimeID: 2, Score: 9},
		{UserID: 2, AnimeID: 3, Score: 3}, {UserID: 2, AnimeID: 5, Score: 7},
		{UserID: 3, AnimeID: 1, Score: 3}, {UserID: 3, AnimeID: 2, Score: 2},
		{UserID: 3, AnimeID: 3, Score: 9}, {UserID: 3, AnimeID: 5, Score: 4},
		{UserID: 4, AnimeID: 1, Score: 7}, {UserID: 4, AnimeID: 2, Score: 6},
		{UserID: 4, AnimeID: 3, Score: 5}, {UserID: 4, AnimeID: 5, Score: 9},
	}
	collab := index.BuildCollab(ratings, 2)

	resolver := relations.NewResolver(cat, nilStore{}, downAPI{}, zap.NewNop())

	return NewService(Deps{
		Catalog:  cat,
		Content:  content,
		Collab:   collab,
		Search:   search.New(cat),
		Profiles: profile.NewBuilder(content, resolver, zap.NewNop()),
		Lists:    lists,
		Cache:    cache,
		Log:      zap.NewNop(),
	})
}

func TestByGenreFiltersAndSorts(t *testing.T) {
	s := testService(nil, nil)

	recs, err := s.ByGenre(context.Background(), []string{"Action"})
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}

	// K-On! has no Action tag, Bleach/Naruto/Gintama qualify; the 6.5
	// floor would have dropped K-On! anyway
	want := []int64{5, 1, 2}
	if len(recs) != len(want) {
		t.Fatalf("expected %d results, got %v", len(want), recs)
	}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("position %d: got id %d, want %d", i, recs[i].ID, id)
		}
	}
}

func TestByGenreScoreFloor(t *testing.T) {
	s := testService(nil, nil)

	recs, err := s.ByGenre(context.Background(), []string{"Comedy"})
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	// both K-On! (6.5) and Gintama (8.9) are Comedy; only Gintama clears 7.0
	if len(recs) != 1 || recs[0].ID != 5 {
		t.Errorf("expected only Gintama, got %v", recs)
	}
}

func TestByGenreIdempotent(t *testing.T) {
	s := testService(nil, nil)

	first, err := s.ByGenre(context.Background(), []string{"Action", "Adventure"})
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	second, err := s.ByGenre(context.Background(), []string{"Action", "Adventure"})
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
}

func TestByGenreNormalizesDisplayTokens(t *testing.T) {
	cat := catalog.New([]domain.Anime{
		{ID: 1, Name: "Psycho-Pass", Genres: []string{"Sci_Fi"}, Score: 8.2},
	})
	s := NewService(Deps{
		Catalog: cat,
		Content: index.BuildContent(cat),
		Collab:  index.BuildCollab(nil, 1),
		Search:  search.New(cat),
		Log:     zap.NewNop(),
	})

	recs, err := s.ByGenre(context.Background(), []string{"Sci-Fi"})
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf(`"Sci-Fi" must match the Sci_Fi token, got %v`, recs)
	}
}

func TestByTitleMissReturnsSuggestions(t *testing.T) {
	s := testService(nil, nil)

	res, err := s.ByTitle(context.Background(), "Nruto")
	if err != nil {
		t.Fatalf("ByTitle: %v", err)
	}
	if res.Suggestions == nil {
		t.Fatal("expected suggestions on exact-match miss")
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("miss must not carry recommendations, got %v", res.Recommendations)
	}
	if len(res.Suggestions.Fuzzy) == 0 || res.Suggestions.Fuzzy[0].Name != "Naruto" {
		t.Errorf("expected Naruto as fuzzy suggestion, got %v", res.Suggestions.Fuzzy)
	}
}

func TestByTitleRanksSimilarTitles(t *testing.T) {
	s := testService(nil, nil)

	res, err := s.ByTitle(context.Background(), "Naruto")
	if err != nil {
		t.Fatalf("ByTitle: %v", err)
	}
	if res.Suggestions != nil {
		t.Fatal("exact hit must not return suggestions")
	}

	recs := res.Recommendations
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for i, r := range recs {
		if r.ID == 1 {
			t.Error("query title leaked into its own recommendations")
		}
		if i > 0 && recs[i-1].Score < r.Score {
			t.Errorf("not sorted descending at %d: %v", i, recs)
		}
	}
	// Bleach co-rates with Naruto and shares its genres: it must beat
	// the contrarian Monster
	var bleach, monster int
	for i, r := range recs {
		switch r.ID {
		case 2:
			bleach = i
		case 3:
			monster = i
		}
	}
	if bleach > monster {
		t.Errorf("expected Bleach above Monster, got order %v", recs)
	}
}

func TestByTitleNoCollaborativeSignal(t *testing.T) {
	s := testService(nil, nil)

	// K-On! (4) was never rated, so it has no collaborative row
	res, err := s.ByTitle(context.Background(), "K-On!")
	if err != nil {
		t.Fatalf("ByTitle: %v", err)
	}
	if res.Suggestions != nil {
		t.Error("exact hit must not fall back to suggestions")
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("expected empty list without collaborative signal, got %v", res.Recommendations)
	}
}

func TestByUserExcludesWatched(t *testing.T) {
	s := testService(nil, nil)

	history := []domain.UserListEntry{
		{ID: 1, Score: 10, Status: domain.StatusCompleted, Genres: []string{"Action", "Adventure"}},
		{ID: 3, Score: 8, Status: domain.StatusCompleted, Genres: []string{"Drama", "Mystery"}},
		{ID: 4, Score: 2, Status: domain.StatusCompleted, Genres: []string{"Music", "Comedy"}},
	}

	recs, err := s.ByUser(context.Background(), history, history)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for _, r := range recs {
		if r.ID == 1 || r.ID == 3 || r.ID == 4 {
			t.Errorf("watched title %d leaked into recommendations", r.ID)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Score < recs[i].Score {
			t.Errorf("not sorted descending: %v", recs)
		}
	}
}

func TestByUserPropagatesProfileFailure(t *testing.T) {
	s := testService(nil, nil)

	if _, err := s.ByUser(context.Background(), nil, nil); !errors.Is(err, domain.ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
}

func TestRecommendUserCaches(t *testing.T) {
	lists := &fakeLists{
		completed: []domain.UserListEntry{
			{ID: 1, Score: 0, Status: domain.StatusCompleted, Genres: []string{"Action", "Adventure"}},
		},
	}
	lists.history = lists.completed
	cache := &mapCache{data: map[string][]domain.RankedRecommendation{}}
	s := testService(lists, cache)

	first, err := s.RecommendUser(context.Background(), "chowder")
	if err != nil {
		t.Fatalf("RecommendUser: %v", err)
	}
	if first.CacheHit {
		t.Error("first call must miss the cache")
	}

	second, err := s.RecommendUser(context.Background(), "chowder")
	if err != nil {
		t.Fatalf("RecommendUser: %v", err)
	}
	if !second.CacheHit {
		t.Error("second call must hit the cache")
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Errorf("cached result differs: %v vs %v", first.Recommendations, second.Recommendations)
	}
}
