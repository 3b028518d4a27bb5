// Package storage implements namespaced key/value regions for credential
// instances.
//
// Every instance executes the same logic but owns private data. Isolation
// comes from two mechanisms: a Namespace constant derived purely from a
// human-readable domain string (so every instance locates the same logical
// region deterministically), and a Provider that stamps out a physically
// private Store per instance address. Adding a new record kind means adding
// a new domain string; it can never collide with an existing region.
package storage

import (
	"context"

	"golang.org/x/crypto/sha3"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Namespace identifies an isolated key/value region. It is a pure function
// of the domain string — never of instance address or creation order — so
// two unrelated regions cannot collide and every instance computes the same
// location for the same logical region.
type Namespace [32]byte

// DeriveNamespace hashes a domain string (e.g. "smartcredentials.reviews.v1")
// into a region identifier.
func DeriveNamespace(domainString string) Namespace {
	return Namespace(sha3.Sum256([]byte(domainString)))
}

// Region constants for the three record kinds a credential instance keeps.
var (
	NamespaceAgentMetadata    = DeriveNamespace("smartcredentials.agent-metadata.v1")
	NamespaceInstanceMetadata = DeriveNamespace("smartcredentials.instance-metadata.v1")
	NamespaceReviews          = DeriveNamespace("smartcredentials.reviews.v1")
)

// Store is a namespaced key/value region set.
//
// Get never reports absence as an error: a key that was never written reads
// back as a zero-length value, indistinguishable from an explicitly stored
// empty value. There is no deletion and no history; Set overwrites
// unconditionally (last write wins).
type Store interface {
	Get(ctx context.Context, ns Namespace, key []byte) ([]byte, error)
	Set(ctx context.Context, ns Namespace, key []byte, value []byte) error
}

// Provider stamps out a private Store for a new instance address. Backends
// that share one physical client (Redis, Postgres) scope keys by the
// instance address; the in-memory backend returns a fresh store.
type Provider interface {
	StoreFor(instance domain.Address) Store
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(instance domain.Address) Store

func (f ProviderFunc) StoreFor(instance domain.Address) Store {
	return f(instance)
}
