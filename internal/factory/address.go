package factory

import (
	"encoding/binary"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// contentAddress derives an instance address as a CIDv1 (raw + sha2-256)
// over the given parts. Each part is length-prefixed so no concatenation of
// different parts can produce the same digest input.
//
// Deterministic addresses are a pure function of their parts — computable
// before the instance exists — which is what lets a caller reference an
// instance-to-be-created in advance.
func contentAddress(parts ...[]byte) domain.Address {
	var buf []byte
	for _, part := range parts {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))
		buf = append(buf, length[:]...)
		buf = append(buf, part...)
	}
	sum, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for unknown codes; with SHA2_256 and -1
		// length this is unreachable.
		panic(err)
	}
	return domain.Address(cid.NewCidV1(cid.Raw, sum).String())
}
