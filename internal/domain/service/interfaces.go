// Package service defines the domain service contracts and the token
// orchestration service composing them.
package service

import (
	"context"
	"time"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/pkg/constants"
)

// SigningKeyProvider resolves the symmetric key material used to sign and
// verify tokens. Resolution never fails: when no configured source yields a
// usable key the provider falls back to a random ephemeral key and surfaces
// the degraded mode through KeyMaterial.IsEphemeral.
// Implementation: internal/infrastructure/crypto/key_provider.go.
type SigningKeyProvider interface {
	// Resolve returns the current key material, resolving it on first use
	// and caching it process-wide thereafter.
	Resolve(ctx context.Context) *models.KeyMaterial

	// Refresh discards the cached material and re-runs resolution.
	Refresh(ctx context.Context) *models.KeyMaterial

	// Validate round-trips a throwaway signed token through the codec using
	// the given key. Any failure reports false.
	Validate(ctx context.Context, key *models.KeyMaterial) bool
}

// TokenCodec mints and verifies signed bearer tokens. The signature
// algorithm is a single fixed symmetric MAC; no algorithm negotiation is
// accepted from the token itself.
// Implementation: internal/infrastructure/crypto/codec.go.
type TokenCodec interface {
	// Issue builds and signs a token for subject with the supplied claim
	// set, issuedAt = now and expiresAt = now + ttl.
	Issue(ctx context.Context, subject string, tokenType constants.TokenType, scopes, roles []string, extra map[string]interface{}, ttl time.Duration) (string, error)

	// Verify parses the raw token, checks signature and expiration, and
	// returns the decoded claims. Failures carry one of the verification
	// kinds from pkg/errors: Expired, BadSignature, Malformed, Unsupported,
	// Empty.
	Verify(ctx context.Context, rawToken string) (*models.Claims, error)
}

// IdentitySnapshot is the subject's role/permission/scope set as returned by
// the external identity lookup at issuance time.
type IdentitySnapshot struct {
	Subject     string
	Scopes      []string
	Roles       []string
	Permissions []string
}

// IdentityDirectory is the external identity/permission lookup, consulted at
// issuance time to snapshot the subject's claim set into the token and its
// stored record. Out of scope for this subsystem; consumed as an interface.
type IdentityDirectory interface {
	Lookup(ctx context.Context, subject string) (*IdentitySnapshot, error)
}

// RevocationPublisher emits token-revoked events to interested consumers.
// Publishing is best effort: failures are logged and never block revocation.
type RevocationPublisher interface {
	PublishRevocation(ctx context.Context, tokenHash, reason string) error

	// Close releases the underlying transport.
	Close() error
}
