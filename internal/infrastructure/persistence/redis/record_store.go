package redis

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/repository"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/errors"
	"github.com/turtacn/tokenforge/pkg/logger"
	"github.com/turtacn/tokenforge/pkg/utils"
)

var _ repository.RecordStore = (*recordStore)(nil)

// recordStore is the Redis-backed implementation of the token record
// registry. The primary record and each secondary index entry duplicate the
// full record JSON under the same TTL, so an index hit never needs a second
// lookup. Index writes share the primary's write path and are best effort:
// there is no cross-key transaction, and a crash between writes can leave an
// index pointing at a missing record until the TTL or a cleanup sweep
// reconciles it.
type recordStore struct {
	cache CacheManager
	log   logger.Logger
}

// NewRecordStore creates a RecordStore over the given cache.
func NewRecordStore(cache CacheManager, log logger.Logger) repository.RecordStore {
	return &recordStore{cache: cache, log: log.WithComponent("record_store")}
}

func recordKey(hash string) string    { return constants.CacheKeyPrefixRecord + hash }
func blacklistKey(hash string) string { return constants.CacheKeyPrefixBlacklist + hash }

// indexKeys returns the secondary index keys applicable to the record.
func indexKeys(r *models.TokenRecord) []string {
	var keys []string
	if r.Username != "" {
		keys = append(keys, constants.CacheKeyPrefixUserIndex+r.Username+":"+r.TokenHash)
	}
	if r.ClientID != "" {
		keys = append(keys, constants.CacheKeyPrefixClientIndex+r.ClientID+":"+r.TokenHash)
	}
	if r.SessionID != "" {
		keys = append(keys, constants.CacheKeyPrefixSessionIndex+r.SessionID+":"+r.TokenHash)
	}
	return keys
}

// Store writes the primary record and its index entries with the record's
// remaining TTL. An already-expired record is not persisted.
func (s *recordStore) Store(ctx context.Context, rawToken string, record *models.TokenRecord) error {
	if record.TokenHash == "" {
		record.TokenHash = utils.HashToken(rawToken)
	}
	return s.persist(ctx, record)
}

// persist writes the record under every applicable key with its remaining
// TTL. The store TTL always equals the logical remaining validity, so reads
// never see a physically present record that is far past its expiry.
func (s *recordStore) persist(ctx context.Context, record *models.TokenRecord) error {
	ttl := record.RemainingTTL()
	if ttl <= 0 {
		return nil
	}

	if err := s.cache.Set(ctx, recordKey(record.TokenHash), record, ttl); err != nil {
		s.log.Error(ctx, "Failed to persist token record", err,
			logger.String("token_hash", record.TokenHash),
		)
		return err
	}
	for _, key := range indexKeys(record) {
		if err := s.cache.Set(ctx, key, record, ttl); err != nil {
			// index divergence is reconciled by TTL or the cleanup sweep
			s.log.Warn(ctx, "Failed to write secondary index entry",
				logger.String("key", key),
				logger.Err(err),
			)
		}
	}
	return nil
}

func (s *recordStore) Get(ctx context.Context, rawToken string) (*models.TokenRecord, error) {
	return s.GetByHash(ctx, utils.HashToken(rawToken))
}

func (s *recordStore) GetByHash(ctx context.Context, tokenHash string) (*models.TokenRecord, error) {
	val, err := s.cache.Get(ctx, recordKey(tokenHash))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrRecordNotFound(tokenHash)
		}
		return nil, err
	}

	var record models.TokenRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, errors.ErrStoreFailure("unmarshal", err)
	}
	return &record, nil
}

// IsValid reports whether the record exists, is effectively ACTIVE, and the
// token is not blacklisted. Any store failure reports false: an outage makes
// tokens appear invalid rather than crashing the caller.
func (s *recordStore) IsValid(ctx context.Context, rawToken string) bool {
	record, err := s.Get(ctx, rawToken)
	if err != nil {
		return false
	}
	if !record.IsActive() {
		return false
	}
	blacklisted, err := s.IsBlacklisted(ctx, rawToken)
	if err != nil {
		return false
	}
	return !blacklisted
}

func (s *recordStore) Invalidate(ctx context.Context, rawToken, reason string) error {
	return s.InvalidateByHash(ctx, utils.HashToken(rawToken), reason)
}

// InvalidateByHash revokes the record and writes the blacklist entry. The
// record keeps its remaining TTL; the blacklist entry gets the same window
// so revocation outlives the primary record by exactly the token's
// remaining validity.
func (s *recordStore) InvalidateByHash(ctx context.Context, tokenHash, reason string) error {
	record, err := s.GetByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if record.IsRevoked() {
		return nil
	}

	record.Revoke(reason)

	ttl := record.RemainingTTL()
	if ttl > 0 {
		entry := &models.BlacklistEntry{
			TokenHash:     tokenHash,
			Reason:        reason,
			BlacklistedAt: time.Now().UTC(),
		}
		if err := s.cache.Set(ctx, blacklistKey(tokenHash), entry, ttl); err != nil {
			return err
		}
	}

	if err := s.persist(ctx, record); err != nil {
		return err
	}

	s.log.Info(ctx, "Token invalidated",
		logger.String("token_hash", tokenHash),
		logger.String("reason", reason),
	)
	return nil
}

// Delete removes the primary record and its index entries. The blacklist is
// deliberately left alone.
func (s *recordStore) Delete(ctx context.Context, rawToken string) error {
	return s.deleteByHash(ctx, utils.HashToken(rawToken))
}

func (s *recordStore) deleteByHash(ctx context.Context, tokenHash string) error {
	record, err := s.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	keys := append([]string{recordKey(tokenHash)}, indexKeys(record)...)
	return s.cache.Delete(ctx, keys...)
}

func (s *recordStore) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	return s.cache.Exists(ctx, blacklistKey(utils.HashToken(rawToken)))
}

// StorePair links the two records through PairedTokenHash and stores both.
func (s *recordStore) StorePair(ctx context.Context, accessToken string, accessRecord *models.TokenRecord, refreshToken string, refreshRecord *models.TokenRecord) error {
	accessRecord.TokenHash = utils.HashToken(accessToken)
	refreshRecord.TokenHash = utils.HashToken(refreshToken)
	accessRecord.PairedTokenHash = refreshRecord.TokenHash
	refreshRecord.PairedTokenHash = accessRecord.TokenHash

	if err := s.persist(ctx, accessRecord); err != nil {
		return err
	}
	return s.persist(ctx, refreshRecord)
}

// GetPair returns the record for the token and, when discoverable, its
// companion. A missing companion is not an error: the link is best effort
// and the companion may simply have expired out of the store.
func (s *recordStore) GetPair(ctx context.Context, rawToken string) (*models.TokenRecord, *models.TokenRecord, error) {
	record, err := s.Get(ctx, rawToken)
	if err != nil {
		return nil, nil, err
	}
	if record.PairedTokenHash == "" {
		return record, nil, nil
	}
	companion, err := s.GetByHash(ctx, record.PairedTokenHash)
	if err != nil {
		if errors.IsNotFound(err) {
			return record, nil, nil
		}
		return record, nil, err
	}
	return record, companion, nil
}

// InvalidatePair revokes the token and its companion so that revoking
// either side of an access/refresh pair takes down both.
func (s *recordStore) InvalidatePair(ctx context.Context, rawToken, reason string) error {
	record, err := s.Get(ctx, rawToken)
	if err != nil {
		return err
	}
	if err := s.InvalidateByHash(ctx, record.TokenHash, reason); err != nil {
		return err
	}
	if record.PairedTokenHash != "" {
		if err := s.InvalidateByHash(ctx, record.PairedTokenHash, constants.RevocationReasonPaired); err != nil && !errors.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (s *recordStore) DeletePair(ctx context.Context, rawToken string) error {
	record, err := s.Get(ctx, rawToken)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if record.PairedTokenHash != "" {
		if err := s.deleteByHash(ctx, record.PairedTokenHash); err != nil {
			return err
		}
	}
	return s.deleteByHash(ctx, record.TokenHash)
}

// IncrementUsage bumps the usage counter with a read-modify-write cycle.
// Concurrent increments are last-write wins; losing an update under
// contention is an accepted trade-off for keeping the record a single JSON
// value.
func (s *recordStore) IncrementUsage(ctx context.Context, rawToken string) error {
	record, err := s.Get(ctx, rawToken)
	if err != nil {
		return err
	}
	record.Touch()
	return s.persist(ctx, record)
}

// scanPattern picks the most selective key pattern for the given filters.
func scanPattern(username, clientID, sessionID string) string {
	switch {
	case username != "":
		return constants.CacheKeyPrefixUserIndex + username + ":*"
	case clientID != "":
		return constants.CacheKeyPrefixClientIndex + clientID + ":*"
	case sessionID != "":
		return constants.CacheKeyPrefixSessionIndex + sessionID + ":*"
	default:
		return constants.CacheKeyPrefixRecord + "*"
	}
}

// fetchRecords loads and unmarshals the records behind keys with bounded
// parallelism. Keys that vanished between the scan and the fetch are
// skipped.
func (s *recordStore) fetchRecords(ctx context.Context, keys []string) ([]*models.TokenRecord, error) {
	var (
		mu      sync.Mutex
		records []*models.TokenRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ScanFetchConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			val, err := s.cache.Get(gctx, key)
			if err != nil {
				if errors.IsNotFound(err) {
					return nil
				}
				return err
			}
			var record models.TokenRecord
			if err := json.Unmarshal([]byte(val), &record); err != nil {
				return nil
			}
			mu.Lock()
			records = append(records, &record)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Search enumerates the most selective index for the criteria and filters
// the matched records in memory. O(n) over the matched prefix.
func (s *recordStore) Search(ctx context.Context, criteria *models.SearchCriteria) ([]*models.TokenRecord, error) {
	pattern := scanPattern(criteria.Username, criteria.ClientID, criteria.SessionID)
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchRecords(ctx, keys)
	if err != nil {
		return nil, err
	}

	matched := records[:0]
	for _, record := range records {
		if criteria.Matches(record) {
			matched = append(matched, record)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if criteria.Limit > 0 && len(matched) > criteria.Limit {
		matched = matched[:criteria.Limit]
	}
	return matched, nil
}

// Stats aggregates counts over the whole store or one user/client scope.
func (s *recordStore) Stats(ctx context.Context, scope models.StatsScope) (*models.TokenStats, error) {
	pattern := scanPattern(scope.Username, scope.ClientID, "")
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchRecords(ctx, keys)
	if err != nil {
		return nil, err
	}

	stats := &models.TokenStats{}
	for _, record := range records {
		stats.Observe(record)
	}
	return stats, nil
}

// Cleanup removes records whose logical expiry has passed. The backend's
// own TTL eviction is the primary mechanism; this sweep reconciles index
// entries that might otherwise go stale.
func (s *recordStore) Cleanup(ctx context.Context, scope models.StatsScope) (int64, error) {
	pattern := scanPattern(scope.Username, scope.ClientID, "")
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	records, err := s.fetchRecords(ctx, keys)
	if err != nil {
		return 0, err
	}

	var removed int64
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.TokenHash]; ok {
			continue
		}
		seen[record.TokenHash] = struct{}{}
		if !record.IsExpired() {
			continue
		}
		delKeys := append([]string{recordKey(record.TokenHash)}, indexKeys(record)...)
		if err := s.cache.Delete(ctx, delKeys...); err != nil {
			s.log.Warn(ctx, "Cleanup failed to delete expired record",
				logger.String("token_hash", record.TokenHash),
				logger.Err(err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info(ctx, "Cleanup sweep completed",
			logger.Int64("removed", removed),
		)
	}
	return removed, nil
}

// Health round-trips a throwaway probe key with a short TTL.
func (s *recordStore) Health(ctx context.Context) *models.HealthStatus {
	key := constants.CacheKeyPrefixHealth + uuid.NewString()

	if err := s.cache.Set(ctx, key, "ok", constants.HealthProbeTTL); err != nil {
		return &models.HealthStatus{Healthy: false, Message: "probe write failed: " + err.Error()}
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		return &models.HealthStatus{Healthy: false, Message: "probe read failed: " + err.Error()}
	}
	if val != "ok" {
		return &models.HealthStatus{Healthy: false, Message: "probe value mismatch"}
	}
	_ = s.cache.Delete(ctx, key)
	return &models.HealthStatus{Healthy: true, Message: "ok"}
}
