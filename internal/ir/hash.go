package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// a future algorithm change without colliding with old ids.
const (
	DomainState    = "vex/state/v1"
	DomainMutation = "vex/mutation/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash computes the content hash of a plain state tree. Two trees with
// the same canonical encoding have the same hash regardless of map order.
func StateHash(state map[string]any) (string, error) {
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MutationID computes the journal identity of a committed mutation.
// seq makes two commits of the same type and payload distinct.
func MutationID(mutationType string, payload any, flowToken string, seq int64) (string, error) {
	p, err := FromPlain(payload)
	if err != nil {
		return "", fmt.Errorf("MutationID: payload: %w", err)
	}
	obj := IRObject{
		"type":       IRString(mutationType),
		"payload":    p,
		"flow_token": IRString(flowToken),
		"seq":        IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("MutationID: %w", err)
	}
	return hashWithDomain(DomainMutation, canonical), nil
}

// MustMutationID is like MutationID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustMutationID(mutationType string, payload any, flowToken string, seq int64) string {
	id, err := MutationID(mutationType, payload, flowToken, seq)
	if err != nil {
		panic(err)
	}
	return id
}
