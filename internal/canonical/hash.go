package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old hashes.
const (
	DomainState  = "vstats/state/v1"
	DomainEvents = "vstats/events/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of the canonical JSON of v under domain.
func Hash(domain string, v any) (string, error) {
	data, err := MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// StateHash fingerprints a derived match state.
func StateHash(state any) (string, error) {
	return Hash(DomainState, state)
}

// EventsHash fingerprints an ordered event list.
func EventsHash(events any) (string, error) {
	return Hash(DomainEvents, events)
}
