package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash derives the deterministic cache key for a spec. The digest input
// is the spec's JSON serialization: struct fields marshal in declaration
// order, so optional-key ordering in the request can never change the
// digest, and JSON string escaping keeps free-form fields (text, font
// family) from forging the boundaries between fields. sha256 keeps the
// cache safe against adversarial collisions on untrusted input; 128 bits
// of it is plenty for the keyspace.
func Hash(s Spec) string {
	canonical, err := json.Marshal(s)
	if err != nil {
		// Spec is a plain value struct; Marshal cannot fail on it.
		panic(err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:16])
}
