package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/internal/infrastructure/crypto"
	"github.com/turtacn/tokenforge/internal/infrastructure/directory"
	"github.com/turtacn/tokenforge/internal/infrastructure/events"
	"github.com/turtacn/tokenforge/internal/infrastructure/persistence/redis"
	"github.com/turtacn/tokenforge/internal/interfaces/http/handlers"
	"github.com/turtacn/tokenforge/internal/interfaces/http/middleware"
	"github.com/turtacn/tokenforge/internal/interfaces/http/router"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
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
	dir := directory.NewStaticDirectory([]string{"read"}, []string{"user"}, nil)

	svc := service.NewTokenService(codec, store, dir, events.NewNoopPublisher(), nil,
		logger.NewNoopLogger(), time.Minute, time.Hour)

	cfg := &config.Config{}
	r := router.NewRouter(cfg, logger.NewNoopLogger(),
		handlers.NewHealthHandler(store),
		handlers.NewTokenHandler(svc, store),
		middleware.RequireToken(svc, logger.NewNoopLogger()),
	)
	r.SetupRoutes()
	return r.Engine()
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func issuePair(t *testing.T, engine *gin.Engine) (string, string) {
	t.Helper()
	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens",
		map[string]string{"subject": "alice", "client_id": "web"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	return data["access_token"].(string), data["refresh_token"].(string)
}

func TestTokenEndpoints_IssueAndVerify(t *testing.T) {
	engine := newTestRouter(t)

	access, refresh := issuePair(t, engine)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/verify",
		map[string]string{"token": access}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "alice", data["subject"])
}

func TestTokenEndpoints_VerifyGarbage(t *testing.T) {
	engine := newTestRouter(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/verify",
		map[string]string{"token": "garbage"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])
}

func TestTokenEndpoints_IssueRequiresSubject(t *testing.T) {
	engine := newTestRouter(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens",
		map[string]string{"client_id": "web"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestTokenEndpoints_RevokeThenVerify(t *testing.T) {
	engine := newTestRouter(t)

	access, _ := issuePair(t, engine)

	w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/revoke",
		map[string]string{"token": access, "reason": "logout"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/verify",
		map[string]string{"token": access}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])
}

func TestTokenEndpoints_Refresh(t *testing.T) {
	engine := newTestRouter(t)

	_, refresh := issuePair(t, engine)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/refresh",
		map[string]string{"token": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEqual(t, refresh, data["refresh_token"])

	// the rotated-out refresh token no longer works
	w, _ = doJSON(t, engine, http.MethodPost, "/api/v1/tokens/refresh",
		map[string]string{"token": refresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenEndpoints_Introspect(t *testing.T) {
	engine := newTestRouter(t)

	access, _ := issuePair(t, engine)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tokens/introspect",
		map[string]string{"token": access}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["active"])
	assert.Equal(t, "alice", resp["username"])
}

func TestAdminEndpoints_RequireAuth(t *testing.T) {
	engine := newTestRouter(t)

	w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/admin/tokens/search",
		map[string]string{"username": "alice"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	access, _ := issuePair(t, engine)
	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/admin/tokens/search",
		map[string]string{"username": "alice"},
		map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
}

func TestAdminEndpoints_Stats(t *testing.T) {
	engine := newTestRouter(t)

	access, _ := issuePair(t, engine)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/admin/tokens/stats",
		map[string]string{}, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(2), data["active"])
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestRouter(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
