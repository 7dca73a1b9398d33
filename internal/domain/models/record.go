// Package models defines the domain models for the tokenforge subsystem.
// This file contains the TokenRecord session entry with its lifecycle logic.
package models

import (
	"time"

	"github.com/turtacn/tokenforge/pkg/constants"
)

// TokenRecord is the stored session entry describing one issued token. The
// record is keyed by a hash of the raw token; the raw token itself is never
// persisted.
type TokenRecord struct {
	// TokenHash is the derived identifier for the raw token
	TokenHash string `json:"token_hash"`

	// TokenType indicates whether this is an access or refresh token
	TokenType constants.TokenType `json:"token_type"`

	// Username identifies the subject the token was issued to
	Username string `json:"username,omitempty"`

	// ClientID identifies the client application that requested the token
	ClientID string `json:"client_id,omitempty"`

	// SessionID groups the records issued within one authentication session
	SessionID string `json:"session_id,omitempty"`

	// IPAddress is the source address the token was requested from
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the user agent string of the requesting client
	UserAgent string `json:"user_agent,omitempty"`

	// Scopes, Roles and Permissions are snapshotted at issuance time
	Scopes      []string `json:"scopes,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`

	// Status is the stored lifecycle state. Expiry is derived from ExpiresAt
	// on read, so an expired record may still physically read ACTIVE here.
	Status constants.TokenStatus `json:"status"`

	// StatusReason records why the token was revoked
	StatusReason string `json:"status_reason,omitempty"`

	// UsageCount is a monotonically non-decreasing usage counter
	UsageCount int64 `json:"usage_count"`

	// PairedTokenHash links an access token to its companion refresh token
	// and vice versa
	PairedTokenHash string `json:"paired_token_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenRecord creates a record for a freshly issued token. IssuedAt,
// CreatedAt and UpdatedAt are set to the current UTC time.
func NewTokenRecord(tokenHash string, tokenType constants.TokenType, ttl time.Duration) *TokenRecord {
	now := time.Now().UTC()
	return &TokenRecord{
		TokenHash: tokenHash,
		TokenType: tokenType,
		Status:    constants.TokenStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the record's expiry has passed.
func (r *TokenRecord) IsExpired() bool {
	return time.Now().UTC().After(r.ExpiresAt)
}

// IsRevoked reports whether the record was explicitly revoked.
func (r *TokenRecord) IsRevoked() bool {
	return r.Status == constants.TokenStatusRevoked
}

// IsActive reports whether the record is usable: stored status ACTIVE and
// not past its derived expiry. A REVOKED record is never active regardless
// of ExpiresAt.
func (r *TokenRecord) IsActive() bool {
	return r.Status == constants.TokenStatusActive && !r.IsExpired()
}

// EffectiveStatus returns the status with expiry derived from the wall
// clock. The stored status is never flipped to EXPIRED eagerly; this method
// is how readers observe it.
func (r *TokenRecord) EffectiveStatus() constants.TokenStatus {
	if r.Status == constants.TokenStatusRevoked {
		return constants.TokenStatusRevoked
	}
	if r.IsExpired() {
		return constants.TokenStatusExpired
	}
	return r.Status
}

// Revoke marks the record as revoked. Revocation is terminal.
func (r *TokenRecord) Revoke(reason string) {
	r.Status = constants.TokenStatusRevoked
	r.StatusReason = reason
	r.UpdatedAt = time.Now().UTC()
}

// Touch increments the usage counter and bumps UpdatedAt.
func (r *TokenRecord) Touch() {
	r.UsageCount++
	r.UpdatedAt = time.Now().UTC()
}

// RemainingTTL returns the duration until the record's logical expiry, or 0
// if it has already passed. Re-persisting a record must use this value so a
// write never extends the token's lifetime.
func (r *TokenRecord) RemainingTTL() time.Duration {
	ttl := time.Until(r.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// HasScope reports whether scope was snapshotted onto the record.
func (r *TokenRecord) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// BlacklistEntry is the authoritative revocation marker for a token. It is
// written alongside record invalidation with a TTL equal to the remaining
// validity window, so a revoked token stays rejected even after its primary
// record has expired out of the store.
type BlacklistEntry struct {
	TokenHash     string    `json:"token_hash"`
	Reason        string    `json:"reason,omitempty"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
}
