package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/j-chowder/anime-recommendation-backend/internal/relations"
)

// The relations table stores each family's member ids as a ", "-joined
// text column keyed by source_id; members are only ever appended.
const memberSeparator = ", "

func (r *Repository) GroupByMember(ctx context.Context, id int64) (*relations.RelationGroup, error) {
	var sourceID int64
	var raw string
	err := r.pool.QueryRow(ctx,
		`SELECT source_id, relations FROM relations
		 WHERE $1 = ANY(string_to_array(relations, ', ')::bigint[])
		 LIMIT 1`,
		id,
	).Scan(&sourceID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query relation group by member %d: %w", id, err)
	}
	return parseGroup(sourceID, raw)
}

func (r *Repository) GroupBySource(ctx context.Context, source relations.SourceID) (*relations.RelationGroup, error) {
	var raw string
	err := r.pool.QueryRow(ctx,
		`SELECT relations FROM relations WHERE source_id = $1`,
		int64(source),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query relation group %d: %w", source, err)
	}
	return parseGroup(int64(source), raw)
}

func (r *Repository) Insert(ctx context.Context, group *relations.RelationGroup) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO relations (source_id, relations) VALUES ($1, $2)`,
		int64(group.SourceID), joinMembers(group.Members),
	)
	if err != nil {
		return fmt.Errorf("insert relation group %d: %w", group.SourceID, err)
	}
	return nil
}

func (r *Repository) AppendMembers(ctx context.Context, source relations.SourceID, members []int64) error {
	if len(members) == 0 {
		return nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE relations SET relations = relations || $2 WHERE source_id = $1`,
		int64(source), memberSeparator+joinMembers(members),
	)
	if err != nil {
		return fmt.Errorf("append members to relation group %d: %w", source, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append members: no relation group for source %d", source)
	}
	return nil
}

func parseGroup(sourceID int64, raw string) (*relations.RelationGroup, error) {
	parts := strings.Split(raw, ",")
	members := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed relation member %q for source %d: %w", p, sourceID, err)
		}
		members = append(members, id)
	}
	return &relations.RelationGroup{
		SourceID: relations.SourceID(sourceID),
		Members:  members,
	}, nil
}

func joinMembers(members []int64) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.FormatInt(m, 10)
	}
	return strings.Join(parts, memberSeparator)
}
