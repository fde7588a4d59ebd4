// Package relations collapses the many adaptations of one source work
// (TV, OVA, movie, manga) onto a single catalog-resident id, so similarity
// signal is not split across duplicate entries. Families are discovered
// lazily against an external service and cached persistently.
package relations

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

const adaptationRelation = "Adaptation"

// Relation categories too loose to define a family.
var walkBlacklist = map[string]bool{
	"Other":     true,
	"Summary":   true,
	"Character": true,
}

type Resolver struct {
	catalog *catalog.Catalog
	store   Store
	api     API
	log     *zap.Logger

	// mu serializes the lookup-merge-write against the store; the store
	// API has no compare-and-set, so concurrent resolutions of the same
	// family would otherwise race into duplicate rows.
	mu sync.Mutex
}

func NewResolver(c *catalog.Catalog, store Store, api API, log *zap.Logger) *Resolver {
	return &Resolver{catalog: c, store: store, api: api, log: log}
}

// Resolve maps id to the catalog id that represents its adaptation family.
//
// A catalog-resident id is already canonical and returns itself. Otherwise
// the persistent cache is consulted, and on a full miss the family is
// discovered upstream, merged into the cache, and its first catalog-resident
// member returned. ErrRelationNotFound when no member exists in the catalog.
func (r *Resolver) Resolve(ctx context.Context, id int64) (int64, error) {
	if r.catalog.Contains(id) {
		return id, nil
	}

	group, err := r.store.GroupByMember(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("relation cache lookup for %d: %w", id, err)
	}
	if group != nil {
		for _, m := range group.Members {
			if m != id && r.catalog.Contains(m) {
				r.log.Debug("relation cache hit",
					zap.Int64("id", id), zap.Int64("canonical", m))
				return m, nil
			}
		}
	}

	family, source := r.discoverFamily(ctx, id)
	if len(family) == 0 {
		return 0, domain.ErrRelationNotFound
	}
	return r.mergeFamily(ctx, family, source)
}

// discoverFamily asks the external service for the id's source material and
// the source's full adaptation list. Works without a source are treated as
// originals: their family is the path collected by walking the relation
// graph, keyed by a synthetic negative source id. Upstream failures degrade
// to "no further data".
func (r *Resolver) discoverFamily(ctx context.Context, id int64) ([]int64, SourceID) {
	source, err := r.sourceOf(ctx, id)
	if err != nil {
		r.log.Warn("source lookup failed", zap.Int64("id", id), zap.Error(err))
		return nil, 0
	}

	if source > 0 {
		rels, err := r.api.MangaRelations(ctx, source)
		if err != nil {
			r.log.Warn("source relations lookup failed",
				zap.Int64("source", source), zap.Error(err))
			return nil, 0
		}
		for _, rel := range rels {
			if rel.Name != adaptationRelation {
				continue
			}
			var family []int64
			for _, e := range rel.Entries {
				if e.Type == "anime" {
					family = append(family, e.ID)
				}
			}
			return family, SourceID(source)
		}
		return nil, 0
	}

	family := r.walk(ctx, id)
	return family, SourceID(-family[0])
}

// sourceOf returns the id of the original source material, or 0 for an
// anime-original work. Multiple source entries can exist (light novel plus
// a later manga); the lowest id is the oldest and therefore the true source.
func (r *Resolver) sourceOf(ctx context.Context, id int64) (int64, error) {
	rels, err := r.api.AnimeRelations(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, rel := range rels {
		if rel.Name != adaptationRelation || len(rel.Entries) == 0 {
			continue
		}
		min := rel.Entries[0].ID
		for _, e := range rel.Entries[1:] {
			if e.ID < min {
				min = e.ID
			}
		}
		return min, nil
	}
	return 0, nil
}

// walk follows the relation graph depth-first along its first unvisited
// non-blacklisted anime neighbor until the path terminates, and returns
// every id on the path. An explicit visited set and loop replace the
// unbounded recursion this was once written with; failures cut the walk
// short and keep what was collected.
func (r *Resolver) walk(ctx context.Context, id int64) []int64 {
	path := []int64{id}
	seen := map[int64]bool{id: true}

	cur := id
	for {
		rels, err := r.api.AnimeRelations(ctx, cur)
		if err != nil {
			r.log.Warn("relation walk cut short", zap.Int64("id", cur), zap.Error(err))
			break
		}

		var next int64
	scan:
		for _, rel := range rels {
			if walkBlacklist[rel.Name] {
				continue
			}
			for _, e := range rel.Entries {
				if e.Type == "anime" && !seen[e.ID] {
					next = e.ID
					break scan
				}
			}
		}
		if next == 0 {
			break
		}
		seen[next] = true
		path = append(path, next)
		cur = next
	}
	return path
}

// mergeFamily finds the canonical member and folds the discovered family
// into the cache: appended (deduplicated) onto the existing row for the
// same source, or onto a row one of the members already belongs to, and
// inserted as a new row only when neither exists. Nothing is written when
// the family has no catalog-resident member.
func (r *Resolver) mergeFamily(ctx context.Context, family []int64, source SourceID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.GroupBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("relation cache lookup for source %d: %w", source, err)
	}

	var canonical int64
	for _, m := range family {
		if existing == nil {
			g, err := r.store.GroupByMember(ctx, m)
			if err != nil {
				return 0, fmt.Errorf("relation cache lookup for %d: %w", m, err)
			}
			existing = g
		}
		if r.catalog.Contains(m) {
			canonical = m
			break
		}
	}
	if canonical == 0 {
		return 0, domain.ErrRelationNotFound
	}

	if existing != nil {
		have := make(map[int64]bool, len(existing.Members))
		for _, m := range existing.Members {
			have[m] = true
		}
		var add []int64
		for _, m := range family {
			if !have[m] {
				have[m] = true
				add = append(add, m)
			}
		}
		if len(add) > 0 {
			if err := r.store.AppendMembers(ctx, existing.SourceID, add); err != nil {
				return 0, fmt.Errorf("append members to %d: %w", existing.SourceID, err)
			}
			r.log.Info("relation group extended",
				zap.Int64("source", int64(existing.SourceID)), zap.Int("added", len(add)))
		}
		return canonical, nil
	}

	group := &RelationGroup{SourceID: source, Members: dedupe(family)}
	if err := r.store.Insert(ctx, group); err != nil {
		return 0, fmt.Errorf("insert relation group %d: %w", source, err)
	}
	r.log.Info("relation group created",
		zap.Int64("source", int64(source)),
		zap.Bool("synthetic", source.Synthetic()),
		zap.Int("members", len(group.Members)))
	return canonical, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
