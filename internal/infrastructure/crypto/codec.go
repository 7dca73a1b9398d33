package crypto

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/errors"
	"github.com/turtacn/tokenforge/pkg/logger"
)

var _ service.TokenCodec = (*tokenCodec)(nil)

// tokenCodec mints and verifies HMAC-SHA256 signed tokens. The algorithm is
// fixed; tokens claiming any other signing method are rejected as
// Unsupported, so no negotiation is accepted from the token itself.
type tokenCodec struct {
	keys     service.SigningKeyProvider
	issuer   string
	audience string
	log      logger.Logger
}

// NewTokenCodec creates a TokenCodec signing with the provider's current key
// material and the configured issuer/audience claims.
func NewTokenCodec(keys service.SigningKeyProvider, issuer, audience string, log logger.Logger) service.TokenCodec {
	if issuer == "" {
		issuer = constants.DefaultIssuer
	}
	if audience == "" {
		audience = constants.DefaultAudience
	}
	return &tokenCodec{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		log:      log.WithComponent("token_codec"),
	}
}

// Issue builds and signs a token for subject. Timestamps are truncated to
// second resolution before embedding.
func (c *tokenCodec) Issue(ctx context.Context, subject string, tokenType constants.TokenType, scopes, roles []string, extra map[string]interface{}, ttl time.Duration) (string, error) {
	now := time.Now().UTC().Truncate(time.Second)

	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes:    scopes,
		Roles:     roles,
		TokenType: tokenType,
		Extra:     extra,
	}

	key := c.keys.Resolve(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key.Bytes)
	if err != nil {
		c.log.Error(ctx, "Failed to sign token", err)
		return "", errors.ErrInternal("failed to sign token").WithCause(err)
	}
	return signed, nil
}

// Verify parses the raw token and checks its signature and expiration.
// Failures are mapped onto the verification taxonomy so callers can branch
// on kind.
func (c *tokenCodec) Verify(ctx context.Context, rawToken string) (*models.Claims, error) {
	if rawToken == "" {
		return nil, errors.ErrEmptyToken()
	}

	key := c.keys.Resolve(ctx)

	token, err := jwt.ParseWithClaims(rawToken, &models.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrUnsupported(t.Method.Alg())
		}
		return key.Bytes, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, errors.ErrMalformed("unexpected claims type")
	}
	return claims, nil
}

// mapParseError translates golang-jwt parse failures into the verification
// error taxonomy.
func mapParseError(err error) error {
	// keyfunc failures (unsupported algorithm) surface through the chain
	if ae, ok := errors.AsAuthError(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.ErrTokenExpired()
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.ErrBadSignature()
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.ErrMalformed(err.Error())
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.ErrUnsupported("unverifiable token")
	default:
		return errors.ErrMalformed(err.Error())
	}
}
