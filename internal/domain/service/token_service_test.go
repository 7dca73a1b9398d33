package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/repository"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/internal/infrastructure/crypto"
	"github.com/turtacn/tokenforge/internal/infrastructure/directory"
	"github.com/turtacn/tokenforge/internal/infrastructure/persistence/redis"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/errors"
	"github.com/turtacn/tokenforge/pkg/logger"
	"github.com/turtacn/tokenforge/pkg/utils"
)

// capturePublisher records published revocation events for assertions.
type capturePublisher struct {
	mu      sync.Mutex
	hashes  []string
	reasons []string
}

func (p *capturePublisher) PublishRevocation(_ context.Context, tokenHash, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hashes = append(p.hashes, tokenHash)
	p.reasons = append(p.reasons, reason)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestService(t *testing.T) (service.TokenService, repository.RecordStore, *capturePublisher) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := redis.NewCacheManager(client, logger.NewNoopLogger())
	store := redis.NewRecordStore(cache, logger.NewNoopLogger())

	key := &models.KeyMaterial{
		Bytes:      []byte("0123456789abcdef0123456789abcdef"),
		Source:     constants.KeySourceConfig,
		ResolvedAt: time.Now(),
	}
	codec := crypto.NewTokenCodec(crypto.NewStaticKeyProvider(key), "test-issuer", "test-audience", logger.NewNoopLogger())
	dir := directory.NewStaticDirectory([]string{"read", "write"}, []string{"user"}, []string{"tokens:use"})
	publisher := &capturePublisher{}

	svc := service.NewTokenService(codec, store, dir, publisher, nil, logger.NewNoopLogger(),
		time.Minute, time.Hour)
	return svc, store, publisher
}

func issueFor(t *testing.T, svc service.TokenService, subject string) *service.TokenPair {
	t.Helper()
	pair, err := svc.IssueTokenPair(context.Background(), &service.IssueRequest{
		Subject:  subject,
		ClientID: "web",
	})
	require.NoError(t, err)
	return pair
}

func TestTokenService_IssueTokenPair(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	assert.Equal(t, constants.TokenTypeAccess, pair.AccessRecord.TokenType)
	assert.Equal(t, constants.TokenTypeRefresh, pair.RefreshRecord.TokenType)
	assert.Equal(t, "alice", pair.AccessRecord.Username)
	assert.Equal(t, []string{"read", "write"}, pair.AccessRecord.Scopes)
	assert.NotEmpty(t, pair.AccessRecord.SessionID)
	assert.Equal(t, pair.AccessRecord.SessionID, pair.RefreshRecord.SessionID)

	// both sides are stored and linked
	record, companion, err := store.GetPair(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, companion)
	assert.Equal(t, record.PairedTokenHash, companion.TokenHash)
}

func TestTokenService_VerifyToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")

	claims, err := svc.VerifyToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"read", "write"}, claims.Scopes)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Equal(t, "web", claims.Extra["client_id"])

	// verification counts as usage
	record, err := store.Get(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.UsageCount)
}

func TestTokenService_VerifyTokenUnknown(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")
	require.NoError(t, store.Delete(ctx, pair.AccessToken))

	_, err := svc.VerifyToken(ctx, pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, svc.IsValid(ctx, pair.AccessToken))
}

func TestTokenService_RevokeToken(t *testing.T) {
	svc, store, publisher := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")
	require.NoError(t, svc.RevokeToken(ctx, pair.AccessToken, constants.RevocationReasonLogout))

	assert.False(t, svc.IsValid(ctx, pair.AccessToken))
	assert.False(t, svc.IsValid(ctx, pair.RefreshToken))

	_, err := svc.VerifyToken(ctx, pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRevoked))

	record, err := store.Get(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, constants.RevocationReasonLogout, record.StatusReason)

	require.Len(t, publisher.hashes, 1)
	assert.Equal(t, utils.HashToken(pair.AccessToken), publisher.hashes[0])
	assert.Equal(t, constants.RevocationReasonLogout, publisher.reasons[0])
}

func TestTokenService_RefreshTokenPair(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	oldPair := issueFor(t, svc, "alice")

	newPair, err := svc.RefreshTokenPair(ctx, oldPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldPair.AccessToken, newPair.AccessToken)
	assert.NotEqual(t, oldPair.RefreshToken, newPair.RefreshToken)

	// the old pair is rotated out
	assert.False(t, svc.IsValid(ctx, oldPair.RefreshToken))
	assert.False(t, svc.IsValid(ctx, oldPair.AccessToken))
	oldRecord, err := store.Get(ctx, oldPair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, constants.RevocationReasonRotated, oldRecord.StatusReason)

	// the new pair works and keeps the session
	assert.True(t, svc.IsValid(ctx, newPair.AccessToken))
	assert.Equal(t, oldPair.RefreshRecord.SessionID, newPair.AccessRecord.SessionID)
}

func TestTokenService_RefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	pair := issueFor(t, svc, "alice")

	_, err := svc.RefreshTokenPair(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
}

func TestTokenService_RefreshRejectsRevokedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")
	require.NoError(t, svc.RevokeToken(ctx, pair.RefreshToken, constants.RevocationReasonLogout))

	_, err := svc.RefreshTokenPair(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRevoked))
}

func TestTokenService_Introspect(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair := issueFor(t, svc, "alice")

	active, err := svc.Introspect(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, active.Active)
	assert.Equal(t, "alice", active.Sub)
	assert.Equal(t, "alice", active.Username)
	assert.Equal(t, "web", active.ClientID)
	assert.Equal(t, "read write", active.Scope)
	assert.Equal(t, string(constants.TokenTypeAccess), active.TokenType)

	require.NoError(t, svc.RevokeToken(ctx, pair.AccessToken, constants.RevocationReasonAdmin))
	inactive, err := svc.Introspect(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	garbage, err := svc.Introspect(ctx, "not-a-token")
	require.NoError(t, err)
	assert.False(t, garbage.Active)
}
