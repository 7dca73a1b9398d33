package models

import (
	"time"

	"github.com/turtacn/tokenforge/pkg/constants"
)

// KeyMaterial is the resolved symmetric signing key. It is immutable after
// resolution; a new value is produced only on an explicit refresh.
type KeyMaterial struct {
	// Bytes is the raw key, always at least MinSigningKeyBytes long
	Bytes []byte

	// Source records which resolution source produced the key
	Source constants.KeySource

	// ResolvedAt is when the key was resolved
	ResolvedAt time.Time
}

// IsEphemeral reports whether the key was randomly generated as a fallback.
// Ephemeral keys do not survive a process restart; operators must treat this
// as a startup health warning.
func (k *KeyMaterial) IsEphemeral() bool {
	return k.Source == constants.KeySourceGenerated
}
