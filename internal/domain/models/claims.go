package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/tokenforge/pkg/constants"
)

// Claims represents the signed claim set carried by a tokenforge token.
// It embeds the standard jwt.RegisteredClaims and adds scope, role, and
// token-type fields. Timestamps are second-resolution Unix epoch values.
type Claims struct {
	jwt.RegisteredClaims

	// Scopes are the permission scopes granted by the token
	Scopes []string `json:"scp,omitempty"`

	// Roles are the subject's roles snapshotted at issuance
	Roles []string `json:"roles,omitempty"`

	// TokenType distinguishes access from refresh tokens
	TokenType constants.TokenType `json:"typ,omitempty"`

	// Extra carries free-form token-type specific claims
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// HasScope reports whether the claim set grants the given scope.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsRefresh reports whether the claims describe a refresh token.
func (c *Claims) IsRefresh() bool {
	return c.TokenType == constants.TokenTypeRefresh
}

// TokenIntrospection is the RFC 7662-shaped introspection response assembled
// from verified claims and the stored record.
type TokenIntrospection struct {
	Active    bool                   `json:"active"`
	Scope     string                 `json:"scope,omitempty"`
	ClientID  string                 `json:"client_id,omitempty"`
	Username  string                 `json:"username,omitempty"`
	TokenType string                 `json:"token_type,omitempty"`
	Exp       int64                  `json:"exp,omitempty"`
	Iat       int64                  `json:"iat,omitempty"`
	Sub       string                 `json:"sub,omitempty"`
	Aud       []string               `json:"aud,omitempty"`
	Iss       string                 `json:"iss,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}
