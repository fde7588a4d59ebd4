package relations

import "context"

// SourceID identifies the source material behind an adaptation family.
// Negative values are synthetic: they mark original works with no source
// material and are the negation of the first id discovered during the
// relation walk, so they can never collide with a real source id.
type SourceID int64

func (s SourceID) Synthetic() bool { return s < 0 }

// RelationGroup is one persisted adaptation family. Members only ever
// grow: updates merge, they never replace.
type RelationGroup struct {
	SourceID SourceID
	Members  []int64
}

// Store is the persistent relation cache. GroupByMember and GroupBySource
// return (nil, nil) when no row exists.
type Store interface {
	GroupByMember(ctx context.Context, id int64) (*RelationGroup, error)
	GroupBySource(ctx context.Context, source SourceID) (*RelationGroup, error)
	Insert(ctx context.Context, group *RelationGroup) error
	AppendMembers(ctx context.Context, source SourceID, members []int64) error
}
