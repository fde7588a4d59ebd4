package domain

import "errors"

var (
	// ErrNotFound: exact title lookup missed all three name fields.
	// Non-fatal, triggers the fallback searches.
	ErrNotFound = errors.New("anime not found")

	// ErrNotInIndex: the id was filtered out of (or never entered) a
	// similarity table. Treated as "no signal", not surfaced to callers.
	ErrNotInIndex = errors.New("anime not in similarity index")

	// ErrNoHistory: the user's list is empty.
	ErrNoHistory = errors.New("user has no list history")

	// ErrNoUsableSeed: the user has history but no title survived seed
	// selection. Distinct from an empty recommendation list.
	ErrNoUsableSeed = errors.New("no usable seed titles in user history")

	// ErrRelationNotFound: the relation walk exhausted without finding a
	// catalog-resident family member.
	ErrRelationNotFound = errors.New("no catalog entry in relation family")

	// ErrUpstreamUnavailable: the external relation service failed or
	// returned a non-OK status.
	ErrUpstreamUnavailable = errors.New("relation service unavailable")
)
