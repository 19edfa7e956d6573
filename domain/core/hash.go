package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// DesignHash fingerprints a study design so run manifests can prove which
// design produced which power curve.
type DesignHash Hash

func (h DesignHash) String() string { return Hash(h).String() }

// ComputeDesignHash builds a deterministic hash over named design fields.
// Keys are sorted so map iteration order never leaks into the fingerprint.
func ComputeDesignHash(fields map[string]interface{}) DesignHash {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", fields[key]))
	}
	return DesignHash(NewHash([]byte(data.String())))
}
