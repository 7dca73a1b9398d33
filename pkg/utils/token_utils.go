// Package utils provides small helpers shared across the subsystem.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken derives the stable identifier for a raw token. The store never
// persists the raw token itself, only this hash.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// IsHexString reports whether s is non-empty, of even length, and consists
// purely of hexadecimal digits.
func IsHexString(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ContainsAll reports whether every element of want is present in have.
func ContainsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	for _, s := range want {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether v is present in list.
func Contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
