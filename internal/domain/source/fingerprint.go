package source

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Change is the outcome of comparing a record's payload against the
// fingerprint stored by the previous resolution pass
type Change int

const (
	// Unchanged means the payload hashes to the stored fingerprint
	Unchanged Change = iota
	// Changed means the payload differs (or no fingerprint was stored yet)
	Changed
)

// String returns the string representation of Change
func (c Change) String() string {
	if c == Unchanged {
		return "unchanged"
	}
	return "changed"
}

// Fingerprint computes the deterministic content hash of a raw payload.
// json.Marshal emits map keys in sorted order, so two payloads with equal
// content always hash identically regardless of ingestion order.
func Fingerprint(payload Payload) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload trees come from decoded JSON and cannot fail to re-encode;
		// an empty hash forces the record to be treated as changed.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Detect compares a record's current payload against the fingerprint stored
// from the previous pass. Records without a stored fingerprint are changed
// by definition.
func Detect(record *Record) Change {
	if record.Fingerprint == "" {
		return Changed
	}
	if Fingerprint(record.Payload) == record.Fingerprint {
		return Unchanged
	}
	return Changed
}
