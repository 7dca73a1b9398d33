// Package repository defines the persistence contracts for the domain layer.
package repository

import (
	"context"

	"github.com/turtacn/tokenforge/internal/domain/models"
)

// RecordStore is the cache-backed registry of issued tokens. Records are
// keyed by a hash of the raw token, with secondary indices by username,
// client, and session.
//
// Multi-key sequences (record plus index writes, read-modify-write updates)
// are not atomic across keys; the store favors availability over strict
// cross-key consistency. Every operation is a self-contained round-trip to
// the backend with no internal deadline; callers apply their own timeout via
// ctx. Implementation: internal/infrastructure/persistence/redis/record_store.go.
type RecordStore interface {
	// Store writes the primary record and all applicable secondary index
	// entries with the record's remaining TTL.
	Store(ctx context.Context, rawToken string, record *models.TokenRecord) error

	// Get hashes the raw token and returns the primary record. It does not
	// consult the blacklist; callers combine both checks.
	Get(ctx context.Context, rawToken string) (*models.TokenRecord, error)

	// GetByHash returns the primary record for an already-derived hash.
	GetByHash(ctx context.Context, tokenHash string) (*models.TokenRecord, error)

	// IsValid reports whether the record exists, is effectively ACTIVE, and
	// the token is not separately blacklisted. Store failures report false.
	IsValid(ctx context.Context, rawToken string) bool

	// Invalidate revokes the token: the record is re-persisted with status
	// REVOKED and its remaining TTL (invalidation never extends lifetime),
	// and a blacklist entry is written so revocation stays authoritative
	// after the primary record expires out of the store.
	Invalidate(ctx context.Context, rawToken, reason string) error

	// InvalidateByHash is Invalidate for an already-derived hash.
	InvalidateByHash(ctx context.Context, tokenHash, reason string) error

	// Delete removes the primary record and its index entries. The blacklist
	// is left untouched: a deleted-but-blacklisted token stays rejected.
	Delete(ctx context.Context, rawToken string) error

	// IsBlacklisted reports whether the token's hash has a blacklist entry.
	IsBlacklisted(ctx context.Context, rawToken string) (bool, error)

	// StorePair stores the access/refresh records as a linked pair, setting
	// PairedTokenHash on both sides before writing.
	StorePair(ctx context.Context, accessToken string, accessRecord *models.TokenRecord, refreshToken string, refreshRecord *models.TokenRecord) error

	// GetPair returns the record for the given token and its companion.
	GetPair(ctx context.Context, rawToken string) (*models.TokenRecord, *models.TokenRecord, error)

	// InvalidatePair revokes the token and, when discoverable, its companion.
	InvalidatePair(ctx context.Context, rawToken, reason string) error

	// DeletePair removes both records of the pair.
	DeletePair(ctx context.Context, rawToken string) error

	// IncrementUsage bumps the record's usage counter and re-persists it
	// with its original remaining TTL. Concurrent increments are last-write
	// wins; an increment may be lost under contention.
	IncrementUsage(ctx context.Context, rawToken string) error

	// Search enumerates the most selective index for the criteria and
	// filters the matched records in memory.
	Search(ctx context.Context, criteria *models.SearchCriteria) ([]*models.TokenRecord, error)

	// Stats aggregates counts over all records, or scoped to one user or
	// client.
	Stats(ctx context.Context, scope models.StatsScope) (*models.TokenStats, error)

	// Cleanup deletes records whose logical expiry has passed. The backing
	// store's own TTL eviction is the primary mechanism; this sweep is a
	// safety net for records whose indices might otherwise go stale. It
	// returns the number of records removed.
	Cleanup(ctx context.Context, scope models.StatsScope) (int64, error)

	// Health round-trips a throwaway probe key through the backend.
	Health(ctx context.Context) *models.HealthStatus
}
