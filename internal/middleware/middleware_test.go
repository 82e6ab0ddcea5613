package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ErrStudentNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", apperrors.ErrUserNotFound), http.StatusNotFound},
		{apperrors.ErrFileNotFound, http.StatusNotFound},
		{apperrors.NewValidationError(map[string]string{"name": "required"}), http.StatusBadRequest},
		{apperrors.ErrEmptyFile, http.StatusBadRequest},
		{apperrors.ErrPathTraversal, http.StatusBadRequest},
		{apperrors.ErrStudentEmailExists, http.StatusConflict},
		{apperrors.ErrUsernameAlreadyTaken, http.StatusConflict},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized},
		{apperrors.ErrPermissionDenied, http.StatusForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHandleAPIError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/students", nil)

	HandleAPIError(c, apperrors.NewValidationError(map[string]string{"email": "email must be a valid email address"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, 400, body.Status)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, "email must be a valid email address", body.Details["email"])
	assert.False(t, body.Timestamp.IsZero())
}

func TestHandleAPIError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/students", nil)

	HandleAPIError(c, errors.New("pq: password authentication failed for user app"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, internalErrorMessage, body.Message)
	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorMessage, decodeEnvelope(t, w).Message)
}

func newAuthRouter(t *testing.T, jwt *auth.JWTService) *gin.Engine {
	t.Helper()
	m := NewAuthMiddleware(jwt)
	r := gin.New()
	api := r.Group("/api", m.JWTAuth())
	api.GET("/me", func(c *gin.Context) {
		name, _ := CurrentUsername(c)
		c.JSON(http.StatusOK, gin.H{"username": name, "ctxUser": requestctx.Username(c.Request.Context())})
	})
	api.DELETE("/admin", m.RoleRequired(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestJWTAuth(t *testing.T) {
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "0123456789abcdef0123456789abcdef", Expiration: time.Hour, TokenIssuer: "test"})
	r := newAuthRouter(t, jwt)

	userToken, _, err := jwt.GenerateToken("alice", "USER")
	require.NoError(t, err)
	adminToken, _, err := jwt.GenerateToken("root", "ADMIN")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Authentication required", decodeEnvelope(t, w).Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"alice","ctxUser":"alice"}`, w.Body.String())
	})

	t.Run("user cannot use admin route", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/admin", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes role check", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/admin", nil)
		req.Header.Set("Authorization", "bearer "+adminToken)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	store := NewLimiterStore(1, 2, 0)
	defer store.Stop()

	r := gin.New()
	r.POST("/login", RateLimit(store), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Another client has its own budget.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiterStore_EvictsIdleClients(t *testing.T) {
	store := NewLimiterStore(60, 1, 0)
	defer store.Stop()
	now := time.Now()
	store.now = func() time.Time { return now }

	store.Allow("a")
	now = now.Add(idleLimiterTTL + time.Second)
	store.Allow("b")
	store.evictIdle()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.clients, "a")
	assert.Contains(t, store.clients, "b")
}

func TestRequestIDAndAuditContext(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()), AuditContext())
	r.GET("/api/students", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{"endpoint": requestctx.Endpoint(ctx), "requestID": requestctx.RequestID(ctx)})
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students?page=1", nil))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "GET /api/students?page=1", body["endpoint"])
		assert.NotEmpty(t, body["requestID"])
		assert.Equal(t, body["requestID"], w.Header().Get(HeaderRequestID))
	})

	t.Run("propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/api/students", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/students", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
