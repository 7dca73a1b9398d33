// Package constants defines shared enumerations, cache key prefixes, claim
// names, and default values used across the tokenforge subsystem.
package constants

import "time"

// ================================================================================
// Token Types
// ================================================================================

// TokenType represents the kind of bearer token.
type TokenType string

const (
	// TokenTypeAccess represents a short-lived access token
	TokenTypeAccess TokenType = "ACCESS"

	// TokenTypeRefresh represents a long-lived refresh token
	TokenTypeRefresh TokenType = "REFRESH"
)

// IsValid reports whether the token type is one of the known kinds.
func (t TokenType) IsValid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// ================================================================================
// Token Status
// ================================================================================

// TokenStatus represents the lifecycle state of a stored token record.
// REVOKED is terminal; there is no transition out of it.
type TokenStatus string

const (
	// TokenStatusActive indicates the token is usable
	TokenStatusActive TokenStatus = "ACTIVE"

	// TokenStatusExpired indicates the token has passed its expiry.
	// Expiry is derived from the record's ExpiresAt on read; this status is
	// never written back eagerly.
	TokenStatusExpired TokenStatus = "EXPIRED"

	// TokenStatusRevoked indicates the token was explicitly invalidated
	TokenStatusRevoked TokenStatus = "REVOKED"
)

// ================================================================================
// Key Source
// ================================================================================

// KeySource identifies where signing key material was resolved from.
type KeySource string

const (
	// KeySourceVault indicates the key came from the persisted secret store
	KeySourceVault KeySource = "vault"

	// KeySourceConfig indicates the key came from static configuration
	KeySourceConfig KeySource = "config"

	// KeySourceGenerated indicates an ephemeral random fallback key.
	// Tokens signed with a generated key do not survive a process restart.
	KeySourceGenerated KeySource = "generated"
)

// ================================================================================
// Cache Key Prefixes
// ================================================================================

const (
	// CacheKeyPrefixRecord is the prefix for primary token record entries
	CacheKeyPrefixRecord = "tf:record:"

	// CacheKeyPrefixUserIndex is the prefix for the user secondary index
	CacheKeyPrefixUserIndex = "tf:user:"

	// CacheKeyPrefixClientIndex is the prefix for the client secondary index
	CacheKeyPrefixClientIndex = "tf:client:"

	// CacheKeyPrefixSessionIndex is the prefix for the session secondary index
	CacheKeyPrefixSessionIndex = "tf:session:"

	// CacheKeyPrefixBlacklist is the prefix for revocation blacklist entries
	CacheKeyPrefixBlacklist = "tf:blacklist:"

	// CacheKeyPrefixHealth is the prefix for health probe keys
	CacheKeyPrefixHealth = "tf:health:"
)

// ================================================================================
// Claim Names
// ================================================================================

const (
	// ClaimKeyScopes is the custom scopes claim
	ClaimKeyScopes = "scp"

	// ClaimKeyRoles is the custom roles claim
	ClaimKeyRoles = "roles"

	// ClaimKeyTokenType is the custom token type claim
	ClaimKeyTokenType = "typ"
)

// ================================================================================
// Defaults
// ================================================================================

const (
	// MinSigningKeyBytes is the minimum HMAC-SHA256 key length; shorter keys
	// are zero-padded up to this size.
	MinSigningKeyBytes = 32

	// DefaultAccessTokenTTL is the default access token lifetime
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default refresh token lifetime
	DefaultRefreshTokenTTL = 720 * time.Hour

	// DefaultIssuer is the iss claim when not configured
	DefaultIssuer = "tokenforge"

	// DefaultAudience is the aud claim when not configured
	DefaultAudience = "tokenforge-api"

	// HealthProbeTTL is the TTL of health check probe keys
	HealthProbeTTL = 5 * time.Second

	// DirectoryCacheTTL is how long identity snapshots are memoized
	DirectoryCacheTTL = 30 * time.Second

	// ScanFetchConcurrency bounds parallel record fetches during index scans
	ScanFetchConcurrency = 8
)

// ================================================================================
// Revocation Reasons
// ================================================================================

const (
	// RevocationReasonLogout is used when a subject logs out
	RevocationReasonLogout = "logout"

	// RevocationReasonRotated is used when a refresh token pair is rotated
	RevocationReasonRotated = "rotated"

	// RevocationReasonAdmin is used for administrative revocation
	RevocationReasonAdmin = "admin_revoked"

	// RevocationReasonPaired is used when a token is revoked because its
	// companion in the pair was revoked
	RevocationReasonPaired = "paired_token_revoked"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is a private type for context values to avoid collisions.
type ContextKey string

const (
	// ContextKeyRequestID carries the request correlation ID
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeySubject carries the authenticated subject
	ContextKeySubject ContextKey = "subject"
)
