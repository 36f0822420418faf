// Package fingerprint derives a stable pseudo-identity for an inbound request.
//
// The key is a best-effort device/browser/network fingerprint: two people behind
// one NAT with the same browser share a key, and one person on two networks gets
// two keys. Only determinism is guaranteed.
package fingerprint

import (
	"encoding/hex"
	"hash/fnv"
)

const separator = "|"

// VisitorKey returns a 16 character hex key over the three request attributes.
// Identical inputs produce identical keys in every process. Empty inputs are valid.
func VisitorKey(remoteAddr, userAgent, acceptLanguage string) string {
	h := fnv.New64a()

	// Write on a hash.Hash never returns an error.
	_, _ = h.Write([]byte(remoteAddr))
	_, _ = h.Write([]byte(separator))
	_, _ = h.Write([]byte(userAgent))
	_, _ = h.Write([]byte(separator))
	_, _ = h.Write([]byte(acceptLanguage))

	return hex.EncodeToString(h.Sum(nil))
}
