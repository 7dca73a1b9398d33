package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/repository"
	"github.com/turtacn/tokenforge/internal/infrastructure/monitoring"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/errors"
	"github.com/turtacn/tokenforge/pkg/logger"
	"github.com/turtacn/tokenforge/pkg/utils"
)

// IssueRequest carries the provenance for a token pair issuance.
type IssueRequest struct {
	Subject   string
	ClientID  string
	SessionID string
	IPAddress string
	UserAgent string
}

// TokenPair is the result of an issuance: both raw tokens and their stored
// records, cross-linked through PairedTokenHash.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessRecord  *models.TokenRecord
	RefreshRecord *models.TokenRecord
}

// TokenService is the inbound contract consumed by request-authorization
// middleware and logout/administrative-revocation endpoints.
type TokenService interface {
	// IssueTokenPair snapshots the subject's identity, mints an access and
	// refresh token, and stores them as a linked pair.
	IssueTokenPair(ctx context.Context, req *IssueRequest) (*TokenPair, error)

	// VerifyToken checks signature and expiration, confirms the token is
	// still active in the store, and records usage.
	VerifyToken(ctx context.Context, rawToken string) (*models.Claims, error)

	// IsValid is the boolean form of VerifyToken.
	IsValid(ctx context.Context, rawToken string) bool

	// RevokeToken invalidates the token and its companion, and publishes a
	// revocation event.
	RevokeToken(ctx context.Context, rawToken, reason string) error

	// RefreshTokenPair rotates: it verifies the refresh token, revokes the
	// old pair, and issues a fresh one with a new identity snapshot.
	RefreshTokenPair(ctx context.Context, rawRefreshToken string) (*TokenPair, error)

	// Introspect returns the RFC 7662-shaped view of a token.
	Introspect(ctx context.Context, rawToken string) (*models.TokenIntrospection, error)
}

type tokenService struct {
	codec     TokenCodec
	store     repository.RecordStore
	directory IdentityDirectory
	publisher RevocationPublisher
	metrics   *monitoring.Metrics
	log       logger.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration

	// dirCache memoizes identity snapshots so bursts of issuance for the
	// same subject do not hammer the directory
	dirCache *gocache.Cache
}

// NewTokenService wires the token orchestration service. metrics may be nil.
func NewTokenService(
	codec TokenCodec,
	store repository.RecordStore,
	directory IdentityDirectory,
	publisher RevocationPublisher,
	metrics *monitoring.Metrics,
	log logger.Logger,
	accessTTL, refreshTTL time.Duration,
) TokenService {
	if accessTTL <= 0 {
		accessTTL = constants.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = constants.DefaultRefreshTokenTTL
	}
	return &tokenService{
		codec:      codec,
		store:      store,
		directory:  directory,
		publisher:  publisher,
		metrics:    metrics,
		log:        log.WithComponent("token_service"),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		dirCache:   gocache.New(constants.DirectoryCacheTTL, 2*constants.DirectoryCacheTTL),
	}
}

// lookupIdentity fetches the subject's current role/permission/scope set,
// memoized for a short window.
func (s *tokenService) lookupIdentity(ctx context.Context, subject string) (*IdentitySnapshot, error) {
	if cached, ok := s.dirCache.Get(subject); ok {
		return cached.(*IdentitySnapshot), nil
	}
	snapshot, err := s.directory.Lookup(ctx, subject)
	if err != nil {
		return nil, errors.ErrInternal("identity lookup failed").WithCause(err).
			WithMetadata("subject", subject)
	}
	s.dirCache.Set(subject, snapshot, gocache.DefaultExpiration)
	return snapshot, nil
}

func (s *tokenService) IssueTokenPair(ctx context.Context, req *IssueRequest) (*TokenPair, error) {
	start := time.Now()

	snapshot, err := s.lookupIdentity(ctx, req.Subject)
	if err != nil {
		s.observeIssue("error", start)
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	extra := map[string]interface{}{
		"client_id":  req.ClientID,
		"session_id": sessionID,
	}

	accessToken, err := s.codec.Issue(ctx, req.Subject, constants.TokenTypeAccess, snapshot.Scopes, snapshot.Roles, extra, s.accessTTL)
	if err != nil {
		s.observeIssue("error", start)
		return nil, err
	}
	refreshToken, err := s.codec.Issue(ctx, req.Subject, constants.TokenTypeRefresh, snapshot.Scopes, snapshot.Roles, extra, s.refreshTTL)
	if err != nil {
		s.observeIssue("error", start)
		return nil, err
	}

	accessRecord := s.buildRecord(req, snapshot, sessionID, constants.TokenTypeAccess, s.accessTTL)
	refreshRecord := s.buildRecord(req, snapshot, sessionID, constants.TokenTypeRefresh, s.refreshTTL)

	if err := s.store.StorePair(ctx, accessToken, accessRecord, refreshToken, refreshRecord); err != nil {
		s.observeIssue("error", start)
		return nil, err
	}

	s.log.Info(ctx, "Token pair issued",
		logger.String("subject", req.Subject),
		logger.String("session_id", sessionID),
		logger.String("access_hash", accessRecord.TokenHash),
	)
	s.observeIssue("ok", start)
	if s.metrics != nil {
		s.metrics.TokenIssued.WithLabelValues(string(constants.TokenTypeRefresh)).Inc()
	}

	return &TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessRecord:  accessRecord,
		RefreshRecord: refreshRecord,
	}, nil
}

func (s *tokenService) buildRecord(req *IssueRequest, snapshot *IdentitySnapshot, sessionID string, tokenType constants.TokenType, ttl time.Duration) *models.TokenRecord {
	record := models.NewTokenRecord("", tokenType, ttl)
	record.Username = req.Subject
	record.ClientID = req.ClientID
	record.SessionID = sessionID
	record.IPAddress = req.IPAddress
	record.UserAgent = req.UserAgent
	record.Scopes = snapshot.Scopes
	record.Roles = snapshot.Roles
	record.Permissions = snapshot.Permissions
	return record
}

func (s *tokenService) VerifyToken(ctx context.Context, rawToken string) (*models.Claims, error) {
	claims, err := s.codec.Verify(ctx, rawToken)
	if err != nil {
		s.observeVerification(err)
		return nil, err
	}

	record, err := s.store.Get(ctx, rawToken)
	if err != nil {
		// fail closed: a missing or unreadable record means unauthenticated
		s.observeVerification(err)
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.ErrTokenRevoked("").WithCause(err)
	}
	if record.IsRevoked() {
		revokedErr := errors.ErrTokenRevoked(record.StatusReason)
		s.observeVerification(revokedErr)
		return nil, revokedErr
	}
	if !s.store.IsValid(ctx, rawToken) {
		revokedErr := errors.ErrTokenRevoked("")
		s.observeVerification(revokedErr)
		return nil, revokedErr
	}

	if err := s.store.IncrementUsage(ctx, rawToken); err != nil {
		s.log.Warn(ctx, "Failed to record token usage",
			logger.String("token_hash", record.TokenHash),
			logger.Err(err),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordVerification("ok")
	}
	return claims, nil
}

func (s *tokenService) IsValid(ctx context.Context, rawToken string) bool {
	if _, err := s.codec.Verify(ctx, rawToken); err != nil {
		return false
	}
	return s.store.IsValid(ctx, rawToken)
}

func (s *tokenService) RevokeToken(ctx context.Context, rawToken, reason string) error {
	if err := s.store.InvalidatePair(ctx, rawToken, reason); err != nil {
		return err
	}

	tokenHash := utils.HashToken(rawToken)
	if pubErr := s.publisher.PublishRevocation(ctx, tokenHash, reason); pubErr != nil {
		// best effort: revocation already took effect in the store
		s.log.Warn(ctx, "Revocation event publish failed",
			logger.String("token_hash", tokenHash),
			logger.Err(pubErr),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordRevocation(reason)
	}
	return nil
}

func (s *tokenService) RefreshTokenPair(ctx context.Context, rawRefreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, errors.New(errors.KindUnsupported, http.StatusUnauthorized, "refresh token required")
	}
	if !s.store.IsValid(ctx, rawRefreshToken) {
		return nil, errors.ErrTokenRevoked("")
	}

	record, err := s.store.Get(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.RevokeToken(ctx, rawRefreshToken, constants.RevocationReasonRotated); err != nil {
		return nil, err
	}

	return s.IssueTokenPair(ctx, &IssueRequest{
		Subject:   record.Username,
		ClientID:  record.ClientID,
		SessionID: record.SessionID,
		IPAddress: record.IPAddress,
		UserAgent: record.UserAgent,
	})
}

func (s *tokenService) Introspect(ctx context.Context, rawToken string) (*models.TokenIntrospection, error) {
	claims, err := s.codec.Verify(ctx, rawToken)
	if err != nil {
		if errors.IsVerificationError(err) {
			return &models.TokenIntrospection{Active: false}, nil
		}
		return nil, err
	}

	record, err := s.store.Get(ctx, rawToken)
	if err != nil || !s.store.IsValid(ctx, rawToken) {
		return &models.TokenIntrospection{Active: false}, nil
	}

	return &models.TokenIntrospection{
		Active:    true,
		Scope:     strings.Join(claims.Scopes, " "),
		ClientID:  record.ClientID,
		Username:  record.Username,
		TokenType: string(record.TokenType),
		Exp:       claims.ExpiresAt.Unix(),
		Iat:       claims.IssuedAt.Unix(),
		Sub:       claims.Subject,
		Aud:       claims.Audience,
		Iss:       claims.Issuer,
		Extra:     claims.Extra,
	}, nil
}

func (s *tokenService) observeIssue(result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordIssue(string(constants.TokenTypeAccess), result, time.Since(start))
	}
}

func (s *tokenService) observeVerification(err error) {
	if s.metrics == nil {
		return
	}
	if ae, ok := errors.AsAuthError(err); ok {
		s.metrics.RecordVerification(string(ae.Kind()))
		return
	}
	s.metrics.RecordVerification("error")
}
