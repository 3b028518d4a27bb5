// Package domain defines the identity types shared across modules.
//
// Typed identifiers prevent accidental cross-use (an agent id is not an
// address, a registry address is not an owner address) at compile time.
package domain

import (
	"strconv"
	"strings"

	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
)

// Address identifies an actor, instance, or registry. Addresses are opaque
// strings: factory-created instances carry content-addressed (CID) values,
// external actors carry whatever identity the deployment assigns them.
// The zero value is the null address.
type Address string

// NullAddress is the absent address. Renouncing ownership sets it; supplying
// it where a registry is required selects the well-known default registry.
const NullAddress Address = ""

// IsNull reports whether the address is the null address.
func (a Address) IsNull() bool {
	return a == NullAddress
}

func (a Address) String() string {
	return string(a)
}

// ParseAddress validates an externally supplied address string.
// The null address is not accepted here; callers that allow it (registry
// binding) check for the empty string before parsing.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullAddress, dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	return Address(s), nil
}

// AgentID identifies a subject agent resolved through an agent registry.
type AgentID uint64

// ParseAgentID parses a decimal agent id from a trust boundary (URL path,
// request body).
func ParseAgentID(s string) (AgentID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "agent id must be an unsigned integer")
	}
	return AgentID(n), nil
}

func (id AgentID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
