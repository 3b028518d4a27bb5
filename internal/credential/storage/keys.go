package storage

import (
	"encoding/binary"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Composite key builders for the three region kinds. Numeric components use
// fixed-width big-endian encoding so a key can never alias another by
// concatenation (the variable-length string component always comes last).

// AgentMetadataKey builds the key for (agentID, key) in the agent-metadata
// region.
func AgentMetadataKey(agentID domain.AgentID, key string) []byte {
	buf := make([]byte, 8, 8+len(key))
	binary.BigEndian.PutUint64(buf, uint64(agentID))
	return append(buf, key...)
}

// InstanceMetadataKey builds the key for an instance-scoped metadata entry.
func InstanceMetadataKey(key string) []byte {
	return []byte(key)
}

// ReviewKey builds the key for the ordered (reviewer, reviewed) pair.
// The pair is directional: (a,b) and (b,a) are distinct entries.
func ReviewKey(reviewerID, reviewedID domain.AgentID) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(reviewerID))
	binary.BigEndian.PutUint64(buf[8:], uint64(reviewedID))
	return buf
}
