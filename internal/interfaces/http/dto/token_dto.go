package dto

import (
	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/service"
)

// TokenIssueRequest is the body of POST /api/v1/tokens.
type TokenIssueRequest struct {
	Subject   string `json:"subject" binding:"required"`
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id"`
}

// TokenPairResponse is the issuance and refresh response body.
type TokenPairResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	SessionID        string `json:"session_id"`
}

// NewTokenPairResponse converts a service pair into the wire shape.
func NewTokenPairResponse(pair *service.TokenPair) *TokenPairResponse {
	return &TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(pair.AccessRecord.RemainingTTL().Seconds()),
		RefreshExpiresIn: int64(pair.RefreshRecord.RemainingTTL().Seconds()),
		SessionID:        pair.AccessRecord.SessionID,
	}
}

// TokenRequest carries a single raw token for verify, revoke, refresh, and
// introspection endpoints.
type TokenRequest struct {
	Token  string `json:"token" binding:"required"`
	Reason string `json:"reason"`
}

// VerifyResponse is the body returned by POST /api/v1/tokens/verify.
type VerifyResponse struct {
	Valid   bool           `json:"valid"`
	Subject string         `json:"subject,omitempty"`
	Scopes  []string       `json:"scopes,omitempty"`
	Roles   []string       `json:"roles,omitempty"`
	Claims  *models.Claims `json:"claims,omitempty"`
}

// SearchRequest is the body of POST /api/v1/admin/tokens/search.
type SearchRequest struct {
	Username  string `json:"username"`
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id"`
	TokenType string `json:"token_type"`
	Status    string `json:"status"`
	Limit     int    `json:"limit"`
}

// StatsRequest scopes a stats query.
type StatsRequest struct {
	Username string `json:"username"`
	ClientID string `json:"client_id"`
}
