package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, registries, and the
// factory return these (optionally wrapped) so callers can translate them
// into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist (e.g. agent unknown to a registry,
//   registry address unbound in the resolver)
// - ErrAlreadyUsed: resource already consumed (a deterministic-address salt
//   whose address holds a live or in-flight instance)
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
)
