// Package ident coerces externally supplied identifiers into the internal
// 128-bit key space. The messaging provider mixes canonical UUIDs (channels)
// with opaque numeric or string ids (chats, messages), while the per-tenant
// schema stores everything as a fixed-width 16-byte key.
package ident

import (
	"fmt"

	"github.com/google/uuid"
)

// Normalize maps an external identifier to a stable internal UUID.
// A canonical UUID string passes through unchanged; the empty string maps to
// the nil UUID; anything else becomes a deterministic UUIDv5 so the same
// input always yields the same key. Normalization is total and never fails.
func Normalize(externalID string) uuid.UUID {
	if externalID == "" {
		return uuid.Nil
	}
	if parsed, err := uuid.Parse(externalID); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(externalID))
}

// ToBytes returns the 16-byte binary form used as primary key material.
func ToBytes(id uuid.UUID) []byte {
	b := id
	return b[:]
}

// FromBytes reconstructs a UUID from stored key material. Legacy rows may
// carry 8-byte integer keys or empty values; both are tolerated on read.
func FromBytes(data []byte) (uuid.UUID, error) {
	switch len(data) {
	case 16:
		return uuid.FromBytes(data)
	case 8:
		var padded [16]byte
		copy(padded[8:], data)
		return uuid.FromBytes(padded[:])
	case 0:
		return uuid.Nil, nil
	default:
		return uuid.Nil, fmt.Errorf("invalid key length: expected 16 or 8 bytes, found %d", len(data))
	}
}
