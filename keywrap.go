package main

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// InvalidKey is what ExtractMessage returns when the supplied key does not
// match the one used at embed time. A mismatch is an answer, not an error,
// so callers compare against this constant instead of checking err.
const InvalidKey = "Invalid Key!"

// keyFences derives the two 16-character fences bracketing a wrapped
// message: the first and last 16 hex digits of the key's SHA-256 digest.
func keyFences(key string) (front, back string) {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	return digest[:16], digest[len(digest)-16:]
}

// wrapKey brackets message with the fences derived from key. An empty key
// means no wrapping at all.
func wrapKey(message, key string) string {
	if key == "" {
		return message
	}
	front, back := keyFences(key)
	return front + message + back
}

// unwrapKey undoes wrapKey. An empty key returns the input untouched;
// fences that do not match yield the InvalidKey sentinel.
func unwrapKey(wrapped, key string) string {
	if key == "" {
		return wrapped
	}
	front, back := keyFences(key)
	if strings.HasPrefix(wrapped, front) && strings.HasSuffix(wrapped, back) {
		if len(wrapped) <= len(front)+len(back) {
			return ""
		}
		return wrapped[len(front) : len(wrapped)-len(back)]
	}
	return InvalidKey
}
