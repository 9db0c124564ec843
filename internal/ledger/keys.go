package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyPrefix namespaces submission records
const keyPrefix = "sub"

// sourceHashLen is the number of hash bytes kept for the source id
const sourceHashLen = 16

// GenerateKey generates a record key for a file of a source. The file URL
// is hashed so keys have a fixed length whatever the URL.
func GenerateKey(source, fileURL string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(fileURL)))
	return SourcePrefix(source) + hex.EncodeToString(hash[:])
}

// SourcePrefix returns the key prefix shared by all records of a source.
// The id is hashed so no source prefix is a prefix of another.
func SourcePrefix(source string) string {
	hash := sha256.Sum256([]byte(source))
	return keyPrefix + ":" + hex.EncodeToString(hash[:sourceHashLen]) + ":"
}
