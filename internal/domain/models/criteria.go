package models

import (
	"time"

	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/utils"
)

// SearchCriteria is a conjunction of optional filters over stored token
// records. Zero-valued fields are ignored. Matching is performed in memory
// over the enumerated index prefix, so a search is O(n) in the number of
// records under that prefix.
type SearchCriteria struct {
	Username  string
	ClientID  string
	SessionID string
	IPAddress string
	UserAgent string

	// Status filters on the effective (expiry-derived) status
	Status constants.TokenStatus

	TokenType constants.TokenType

	// Scopes requires every listed scope to be present on the record
	Scopes []string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time

	// Limit caps the number of results; zero means unlimited
	Limit int
}

// Matches reports whether the record satisfies every set filter.
func (c *SearchCriteria) Matches(r *TokenRecord) bool {
	if c.Username != "" && r.Username != c.Username {
		return false
	}
	if c.ClientID != "" && r.ClientID != c.ClientID {
		return false
	}
	if c.SessionID != "" && r.SessionID != c.SessionID {
		return false
	}
	if c.IPAddress != "" && r.IPAddress != c.IPAddress {
		return false
	}
	if c.UserAgent != "" && r.UserAgent != c.UserAgent {
		return false
	}
	if c.Status != "" && r.EffectiveStatus() != c.Status {
		return false
	}
	if c.TokenType != "" && r.TokenType != c.TokenType {
		return false
	}
	if !utils.ContainsAll(r.Scopes, c.Scopes) {
		return false
	}
	if c.CreatedAfter != nil && r.CreatedAt.Before(*c.CreatedAfter) {
		return false
	}
	if c.CreatedBefore != nil && r.CreatedAt.After(*c.CreatedBefore) {
		return false
	}
	if c.ExpiresAfter != nil && r.ExpiresAt.Before(*c.ExpiresAfter) {
		return false
	}
	if c.ExpiresBefore != nil && r.ExpiresAt.After(*c.ExpiresBefore) {
		return false
	}
	return true
}

// StatsScope narrows an aggregation or cleanup sweep to one user or client.
// The zero value means the whole store.
type StatsScope struct {
	Username string
	ClientID string
}

// IsGlobal reports whether the scope covers the whole store.
func (s StatsScope) IsGlobal() bool {
	return s.Username == "" && s.ClientID == ""
}

// TokenStats aggregates counts over a set of token records.
type TokenStats struct {
	Total            int64   `json:"total"`
	Active           int64   `json:"active"`
	Expired          int64   `json:"expired"`
	Revoked          int64   `json:"revoked"`
	Access           int64   `json:"access"`
	Refresh          int64   `json:"refresh"`
	TotalUsage       int64   `json:"total_usage"`
	AvgUsagePerToken float64 `json:"avg_usage_per_token"`
}

// Observe folds one record into the aggregate.
func (s *TokenStats) Observe(r *TokenRecord) {
	s.Total++
	switch r.EffectiveStatus() {
	case constants.TokenStatusActive:
		s.Active++
	case constants.TokenStatusExpired:
		s.Expired++
	case constants.TokenStatusRevoked:
		s.Revoked++
	}
	switch r.TokenType {
	case constants.TokenTypeAccess:
		s.Access++
	case constants.TokenTypeRefresh:
		s.Refresh++
	}
	s.TotalUsage += r.UsageCount
	if s.Total > 0 {
		s.AvgUsagePerToken = float64(s.TotalUsage) / float64(s.Total)
	}
}

// HealthStatus is the result of a store health probe.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}
