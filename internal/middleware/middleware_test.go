package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorDetail {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrConversationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("load: %w", apperrors.ErrMessageNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrNotParticipant, http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrNotMessageSender, http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrEditWindowExpired, http.StatusUnprocessableEntity, dto.ErrorCodeResourceInvalid},
		{apperrors.ErrMessageDeleted, http.StatusUnprocessableEntity, dto.ErrorCodeResourceInvalid},
		{apperrors.ErrEmptyMessage, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrInvalidReplyTarget, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{fmt.Errorf("%w: bad sig", apperrors.ErrTokenInvalid), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{fmt.Errorf("db down"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		status, detail := StatusForError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, detail.Code, tt.err.Error())
	}
}

func TestStatusForError_Messages(t *testing.T) {
	_, detail := StatusForError(apperrors.ErrEditWindowExpired)
	assert.Equal(t, "Edit window has expired", detail.Message)

	custom := apperrors.NewCustomError(apperrors.ErrInvalidParticipants, "user 9 is not an active member")
	status, detail := StatusForError(fmt.Errorf("create: %w", custom))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "user 9 is not an active member", detail.Message)

	_, detail = StatusForError(fmt.Errorf("db down"))
	assert.Equal(t, "Internal server error", detail.Message)
}

func newAuthRouter(t *testing.T, users stubUsers) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "hubtc.test",
	})
	m := NewAuthMiddleware(jwtService, users)

	r := gin.New()
	r.GET("/me", m.JWTAuth(), m.ActiveUserRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64(ContextUserID), "email": c.GetString(ContextEmail)})
	})
	return r, jwtService
}

func TestJWTAuth(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, Email: "ayse.kaya@hubtc.travel", IsActive: true},
		2: {ID: 2, Email: "former@hubtc.travel", IsActive: false},
	}
	r, jwtService := newAuthRouter(t, users)

	token, _, err := jwtService.GenerateAccessToken(users[1])
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userID":1,"email":"ayse.kaya@hubtc.travel"}`, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "hubtc.test"})
		forged, _, err := other.GenerateAccessToken(users[1])
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive, _, err := jwtService.GenerateAccessToken(users[2])
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+inactive)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		ghost, _, err := jwtService.GenerateAccessToken(&models.User{ID: 44})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+ghost)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTypingLimiter(t *testing.T) {
	recorded := 0
	r := gin.New()
	r.POST("/typing", func(c *gin.Context) {
		c.Set(ContextUserID, int64(1))
		c.Next()
	}, TypingLimiter(0.001, 2), func(c *gin.Context) {
		recorded++
		c.Status(http.StatusNoContent)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/typing", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusOK}, codes)
	assert.Equal(t, 2, recorded)
}

func TestRequestLogger_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/react", func(c *gin.Context) {
		var req dto.ReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/react", jsonBody(`{"emoji":"abc"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "emoji", detail.Field)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/react", jsonBody(`{"emoji":"👍"}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestLimiterPool_EvictsIdleUsers(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	pool := newLimiterPool(1, 1)
	pool.now = func() time.Time { return now }

	assert.True(t, pool.Allow(1))
	assert.False(t, pool.Allow(1))
	now = now.Add(limiterTTL / 2)
	assert.True(t, pool.Allow(2))
	require.Equal(t, 2, pool.size())

	now = now.Add(limiterTTL / 2).Add(time.Second)
	assert.Equal(t, 1, pool.evictIdle(now.Add(-limiterTTL)))
	assert.Equal(t, 1, pool.size())

	// user 1 comes back with a fresh bucket
	assert.True(t, pool.Allow(1))
	assert.Equal(t, 2, pool.size())
}
