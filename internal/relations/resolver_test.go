package relations

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	groups []*RelationGroup
}

func (s *memStore) GroupByMember(_ context.Context, id int64) (*RelationGroup, error) {
	for _, g := range s.groups {
		for _, m := range g.Members {
			if m == id {
				return &RelationGroup{SourceID: g.SourceID, Members: append([]int64(nil), g.Members...)}, nil
			}
		}
	}
	return nil, nil
}

func (s *memStore) GroupBySource(_ context.Context, source SourceID) (*RelationGroup, error) {
	for _, g := range s.groups {
		if g.SourceID == source {
			return &RelationGroup{SourceID: g.SourceID, Members: append([]int64(nil), g.Members...)}, nil
		}
	}
	return nil, nil
}

func (s *memStore) Insert(_ context.Context, group *RelationGroup) error {
	s.groups = append(s.groups, &RelationGroup{
		SourceID: group.SourceID,
		Members:  append([]int64(nil), group.Members...),
	})
	return nil
}

func (s *memStore) AppendMembers(_ context.Context, source SourceID, members []int64) error {
	for _, g := range s.groups {
		if g.SourceID == source {
			g.Members = append(g.Members, members...)
			return nil
		}
	}
	return errors.New("no such group")
}

// scriptAPI serves canned relation responses and counts calls.
type scriptAPI struct {
	anime map[int64][]Relation
	manga map[int64][]Relation
	calls int
}

func (a *scriptAPI) AnimeRelations(_ context.Context, id int64) ([]Relation, error) {
	a.calls++
	rels, ok := a.anime[id]
	if !ok {
		return nil, domain.ErrUpstreamUnavailable
	}
	return rels, nil
}

func (a *scriptAPI) MangaRelations(_ context.Context, id int64) ([]Relation, error) {
	a.calls++
	rels, ok := a.manga[id]
	if !ok {
		return nil, domain.ErrUpstreamUnavailable
	}
	return rels, nil
}

func testResolverCatalog() *catalog.Catalog {
	return catalog.New([]domain.Anime{
		{ID: 1, Name: "Naruto"},
		{ID: 701, Name: "Original Sequel"},
	})
}

func TestResolveCatalogResident(t *testing.T) {
	api := &scriptAPI{}
	r := NewResolver(testResolverCatalog(), &memStore{}, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 1 {
		t.Errorf("catalog-resident id must return itself, got %d", got)
	}
	if api.calls != 0 {
		t.Errorf("catalog hit must not touch the upstream, made %d calls", api.calls)
	}
}

func TestResolveCachedGroup(t *testing.T) {
	store := &memStore{groups: []*RelationGroup{
		{SourceID: 90, Members: []int64{555, 1}},
	}}
	api := &scriptAPI{}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 555)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 1 {
		t.Errorf("expected cached canonical 1, got %d", got)
	}
	if api.calls != 0 {
		t.Errorf("cache hit must not touch the upstream, made %d calls", api.calls)
	}
}

func TestResolveDiscoversSourceFamily(t *testing.T) {
	// 555 adapts manga 90 (and a later re-release 95); the source's
	// adaptations include catalog entry 1.
	api := &scriptAPI{
		anime: map[int64][]Relation{
			555: {{Name: "Adaptation", Entries: []Entry{{ID: 95, Type: "manga"}, {ID: 90, Type: "manga"}}}},
		},
		manga: map[int64][]Relation{
			90: {{Name: "Adaptation", Entries: []Entry{
				{ID: 555, Type: "anime"},
				{ID: 1, Type: "anime"},
				{ID: 90, Type: "manga"},
			}}},
		},
	}
	store := &memStore{}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 555)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 1 {
		t.Errorf("expected canonical 1, got %d", got)
	}

	if len(store.groups) != 1 {
		t.Fatalf("expected one relation group, got %d", len(store.groups))
	}
	g := store.groups[0]
	if g.SourceID != 90 {
		t.Errorf("expected source 90 (the lowest adaptation id), got %d", g.SourceID)
	}
	if g.SourceID.Synthetic() {
		t.Error("real source must not read as synthetic")
	}
	if len(g.Members) != 2 {
		t.Errorf("expected members [555 1], got %v", g.Members)
	}
}

func TestResolveMergeIsIdempotent(t *testing.T) {
	api := &scriptAPI{
		anime: map[int64][]Relation{
			555: {{Name: "Adaptation", Entries: []Entry{{ID: 90, Type: "manga"}}}},
		},
		manga: map[int64][]Relation{
			90: {{Name: "Adaptation", Entries: []Entry{{ID: 555, Type: "anime"}, {ID: 1, Type: "anime"}}}},
		},
	}
	store := &memStore{}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	first, err := r.Resolve(context.Background(), 555)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), 555)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Errorf("resolutions disagree: %d vs %d", first, second)
	}

	if len(store.groups) != 1 {
		t.Fatalf("double resolution created %d rows, want 1", len(store.groups))
	}
	if len(store.groups[0].Members) != 2 {
		t.Errorf("member set changed on re-resolution: %v", store.groups[0].Members)
	}
}

func TestResolveMergesIntoExistingRow(t *testing.T) {
	store := &memStore{groups: []*RelationGroup{
		// a prior resolution found part of the family; 556 is not yet listed
		{SourceID: 90, Members: []int64{555}},
	}}
	api := &scriptAPI{
		anime: map[int64][]Relation{
			556: {{Name: "Adaptation", Entries: []Entry{{ID: 90, Type: "manga"}}}},
		},
		manga: map[int64][]Relation{
			90: {{Name: "Adaptation", Entries: []Entry{
				{ID: 555, Type: "anime"},
				{ID: 556, Type: "anime"},
				{ID: 1, Type: "anime"},
			}}},
		},
	}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 556)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 1 {
		t.Errorf("expected canonical 1, got %d", got)
	}

	if len(store.groups) != 1 {
		t.Fatalf("merge must extend the existing row, got %d rows", len(store.groups))
	}
	members := store.groups[0].Members
	if len(members) != 3 {
		t.Errorf("expected union [555 556 1], got %v", members)
	}
}

func TestResolveMergesBySourceWhenCanonicalListedFirst(t *testing.T) {
	store := &memStore{groups: []*RelationGroup{
		// source 90 already has a row, but the catalog-resident member is
		// listed first upstream and is not yet in that row
		{SourceID: 90, Members: []int64{555}},
	}}
	api := &scriptAPI{
		anime: map[int64][]Relation{
			556: {{Name: "Adaptation", Entries: []Entry{{ID: 90, Type: "manga"}}}},
		},
		manga: map[int64][]Relation{
			90: {{Name: "Adaptation", Entries: []Entry{
				{ID: 1, Type: "anime"},
				{ID: 555, Type: "anime"},
				{ID: 556, Type: "anime"},
			}}},
		},
	}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 556)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 1 {
		t.Errorf("expected canonical 1, got %d", got)
	}

	if len(store.groups) != 1 {
		t.Fatalf("merge must extend the existing source-90 row, got %d rows", len(store.groups))
	}
	g := store.groups[0]
	if g.SourceID != 90 {
		t.Errorf("expected source 90, got %d", g.SourceID)
	}
	if len(g.Members) != 3 {
		t.Errorf("expected union of [555] and [1 555 556], got %v", g.Members)
	}
}

func TestResolveOriginalWorkWalk(t *testing.T) {
	// 700 has no source material: the walk follows the first unvisited
	// non-blacklisted anime neighbor, skipping "Other" noise, and stops
	// when the path terminates.
	api := &scriptAPI{
		anime: map[int64][]Relation{
			700: {
				{Name: "Other", Entries: []Entry{{ID: 999, Type: "anime"}}},
				{Name: "Sequel", Entries: []Entry{{ID: 701, Type: "anime"}}},
			},
			701: {
				{Name: "Prequel", Entries: []Entry{{ID: 700, Type: "anime"}}},
			},
		},
	}
	store := &memStore{}
	r := NewResolver(testResolverCatalog(), store, api, zap.NewNop())

	got, err := r.Resolve(context.Background(), 700)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 701 {
		t.Errorf("expected catalog-resident 701, got %d", got)
	}

	if len(store.groups) != 1 {
		t.Fatalf("expected one group, got %d", len(store.groups))
	}
	g := store.groups[0]
	if g.SourceID != -700 {
		t.Errorf("expected synthetic source -700, got %d", g.SourceID)
	}
	if !g.SourceID.Synthetic() {
		t.Error("negative source must read as synthetic")
	}
	for _, m := range g.Members {
		if m == 999 {
			t.Error("blacklisted branch leaked into the family")
		}
	}
}

func TestResolveUpstreamFailure(t *testing.T) {
	r := NewResolver(testResolverCatalog(), &memStore{}, &scriptAPI{}, zap.NewNop())

	_, err := r.Resolve(context.Background(), 12345)
	if !errors.Is(err, domain.ErrRelationNotFound) {
		t.Errorf("expected ErrRelationNotFound when upstream yields nothing, got %v", err)
	}
}
