package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"strings"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON returns the hex SHA-256 of the JSON encoding of each value in
// turn. Values are separated so that ("ab", "c") and ("a", "bc") differ.
func HashJSON(values ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for i, v := range values {
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("hash value %d: %w", i, err)
		}
	}
	return sum(h), nil
}

// hashKey builds a cache key of the form prefix:hex(sha256(json(parts))).
// Parts that do not encode as JSON (NaN floats) are hashed in Go syntax.
func hashKey(prefix string, parts ...any) string {
	h, err := HashJSON(parts...)
	if err != nil {
		h = Hash(fmt.Appendf(nil, "%#v", parts))
	}
	return prefix + ":" + h
}

func sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// KeyKind extracts the kind from a key built by a Keyer: "scene", "frames"
// or "artifact/<format>". Scope prefixes are skipped. Unrecognized keys
// return "".
func KeyKind(key string) string {
	parts := strings.Split(key, ":")
	for i, p := range parts {
		switch p {
		case "scene", "frames":
			return p
		case "artifact":
			if i+2 < len(parts) {
				return "artifact/" + parts[i+1]
			}
			return p
		}
	}
	return ""
}
