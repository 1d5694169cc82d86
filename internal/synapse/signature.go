package synapse

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// DomainDensity is the hash domain for density-map pattern signatures.
// The version suffix allows the algorithm to change without colliding with
// signatures learned by earlier runs.
const DomainDensity = "synaptic/density/v1"

// Signature computes the opaque density-map key for a pattern.
//
// Format: SHA256(domain + 0x00 + part1 + 0x00 + part2 ...), with every part
// NFC-normalized so that visually identical identifiers hash the same.
func Signature(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(DomainDensity))
	for _, p := range parts {
		h.Write([]byte{0x00})
		h.Write([]byte(norm.NFC.String(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
