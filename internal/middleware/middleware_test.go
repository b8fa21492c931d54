package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func protected(roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	g := r.Group("/", JWTAuth(testSecret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/whoami", func(c *gin.Context) {
		org, err := OrganizationID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, org.String())
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ScopesToOrganization(t *testing.T) {
	org := uuid.New()
	token, err := NewToken(testSecret, org, "u-1", RoleOperator, time.Hour)
	require.NoError(t, err)

	w := get(protected(), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, org.String(), w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestJWTAuth_Rejects(t *testing.T) {
	r := protected()
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	wrongKey, err := NewToken("other-secret", uuid.New(), "u-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, wrongKey).Code)

	expired, err := NewToken(testSecret, uuid.New(), "u-1", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, expired).Code)

	noOrg, err := NewToken(testSecret, uuid.Nil, "u-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, noOrg).Code, "the nil uuid still parses")
}

func TestRequireRole(t *testing.T) {
	r := protected(RoleAdmin, RolePlanner)

	planner, _ := NewToken(testSecret, uuid.New(), "u-1", RolePlanner, time.Hour)
	operator, _ := NewToken(testSecret, uuid.New(), "u-2", RoleOperator, time.Hour)

	assert.Equal(t, http.StatusOK, get(r, planner).Code)
	assert.Equal(t, http.StatusForbidden, get(r, operator).Code)
}

func TestRequestID_KeepsCallerValue(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter_Window(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }

	ok, _ := l.allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow("1.2.3.4")
	assert.True(t, ok)
	ok, retry := l.allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = l.allow("5.6.7.8")
	assert.True(t, ok, "limits are per key")

	clock = clock.Add(61 * time.Second)
	assert.Equal(t, 2, l.purge())
	ok, _ = l.allow("1.2.3.4")
	assert.True(t, ok)
}

func TestErrorHandler_HidesCause(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
