package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/repository"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/internal/interfaces/http/dto"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/errors"
)

// TokenHandler serves the token lifecycle endpoints.
type TokenHandler struct {
	tokens service.TokenService
	store  repository.RecordStore
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(tokens service.TokenService, store repository.RecordStore) *TokenHandler {
	return &TokenHandler{tokens: tokens, store: store}
}

// Issue handles POST /api/v1/tokens.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req dto.TokenIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	pair, err := h.tokens.IssueTokenPair(c.Request.Context(), &service.IssueRequest{
		Subject:   req.Subject,
		ClientID:  req.ClientID,
		SessionID: req.SessionID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, dto.NewTokenPairResponse(pair))
}

// Verify handles POST /api/v1/tokens/verify.
func (h *TokenHandler) Verify(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	claims, err := h.tokens.VerifyToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.IsVerificationError(err) || errors.IsKind(err, errors.KindRevoked) || errors.IsNotFound(err) {
			dto.SendSuccess(c, http.StatusOK, &dto.VerifyResponse{Valid: false})
			return
		}
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, &dto.VerifyResponse{
		Valid:   true,
		Subject: claims.Subject,
		Scopes:  claims.Scopes,
		Roles:   claims.Roles,
		Claims:  claims,
	})
}

// Refresh handles POST /api/v1/tokens/refresh.
func (h *TokenHandler) Refresh(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	pair, err := h.tokens.RefreshTokenPair(c.Request.Context(), req.Token)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, dto.NewTokenPairResponse(pair))
}

// Revoke handles POST /api/v1/tokens/revoke.
func (h *TokenHandler) Revoke(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = constants.RevocationReasonLogout
	}

	if err := h.tokens.RevokeToken(c.Request.Context(), req.Token, reason); err != nil {
		// RFC 7009: revoking an unknown token is not an error
		if errors.IsNotFound(err) {
			dto.SendSuccess(c, http.StatusOK, gin.H{"status": "ok"})
			return
		}
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

// Introspect handles POST /api/v1/tokens/introspect.
func (h *TokenHandler) Introspect(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	introspection, err := h.tokens.Introspect(c.Request.Context(), req.Token)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, introspection)
}

// Search handles POST /api/v1/admin/tokens/search.
func (h *TokenHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	criteria := &models.SearchCriteria{
		Username:  req.Username,
		ClientID:  req.ClientID,
		SessionID: req.SessionID,
		TokenType: constants.TokenType(req.TokenType),
		Status:    constants.TokenStatus(req.Status),
		Limit:     req.Limit,
	}

	records, err := h.store.Search(c.Request.Context(), criteria)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, gin.H{"tokens": records, "count": len(records)})
}

// Stats handles POST /api/v1/admin/tokens/stats.
func (h *TokenHandler) Stats(c *gin.Context) {
	var req dto.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), models.StatsScope{
		Username: req.Username,
		ClientID: req.ClientID,
	})
	if err != nil {
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, stats)
}

// Cleanup handles POST /api/v1/admin/tokens/cleanup.
func (h *TokenHandler) Cleanup(c *gin.Context) {
	var req dto.StatsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.SendError(c, errors.New(errors.KindMalformed, http.StatusBadRequest, "invalid request body").WithCause(err))
			return
		}
	}

	removed, err := h.store.Cleanup(c.Request.Context(), models.StatsScope{
		Username: req.Username,
		ClientID: req.ClientID,
	})
	if err != nil {
		dto.SendError(c, err)
		return
	}

	dto.SendSuccess(c, http.StatusOK, gin.H{"removed": removed})
}
