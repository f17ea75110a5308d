package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/database/dbtest"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, quietLogger())
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))

	// budgets are per client
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, quietLogger())
	now := time.Now()
	rl.allow("a", now)
	rl.allow("b", now.Add(9*time.Minute))

	assert.Equal(t, 1, rl.Cleanup(now.Add(11*time.Minute)))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "b")
}

func withAccess(a auth.AccessContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetAccess(c, a)
		c.Next()
	}
}

func TestRequireRole(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	cases := []struct {
		name   string
		access auth.AccessContext
		want   int
	}{
		{"anonymous", auth.Anonymous(nil), http.StatusUnauthorized},
		{"ordinary", auth.NewAccessContext(models.User{ID: 1, Username: "a", UserStatus: models.RoleOrdinary}), http.StatusForbidden},
		{"privileged", auth.NewAccessContext(models.User{ID: 2, Username: "b", UserStatus: models.RolePrivileged}), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", withAccess(tc.access), RequireRole(models.RolePrivileged), ok)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireAuthReportsExpiredSession(t *testing.T) {
	r := gin.New()
	r.GET("/me", withAccess(auth.Anonymous(auth.ErrSessionExpired)), RequireAuth, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrSessionExpired.Error(), errorBody(t, rec))
}

type resolveFixture struct {
	db     *gorm.DB
	id     *auth.Identity
	engine *gin.Engine
}

func newResolveFixture(t *testing.T) resolveFixture {
	t.Helper()
	db := dbtest.New(t)
	id := auth.NewIdentity(db, auth.NewPasswordHasher("pepper", 4), auth.NewTokenIssuer("secret", 0))
	sm := NewSessionManager(memstore.New(), false)

	r := gin.New()
	r.Use(Sessions(sm, quietLogger()), ResolveAccess(sm, id))
	r.GET("/whoami", func(c *gin.Context) {
		a := auth.Access(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": a.Authenticated, "username": a.Username})
	})
	return resolveFixture{db: db, id: id, engine: r}
}

func (f resolveFixture) whoami(t *testing.T, header string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// scratchSession holds a login for tests that only need the token.
type scratchSession struct {
	userID uint
	token  string
}

func (s *scratchSession) UserID() (uint, bool)    { return s.userID, s.userID != 0 }
func (s *scratchSession) Token() string           { return s.token }
func (s *scratchSession) LastActivity() time.Time { return time.Now() }
func (s *scratchSession) Touch(time.Time)         {}

func (s *scratchSession) Establish(_ context.Context, userID uint, token string, _ time.Time) error {
	s.userID, s.token = userID, token
	return nil
}

func (s *scratchSession) Clear(context.Context) error {
	*s = scratchSession{}
	return nil
}

func TestResolveAccessFromBearerToken(t *testing.T) {
	f := newResolveFixture(t)
	_, token, err := f.id.Register(context.Background(), &scratchSession{}, auth.RegisterInput{
		Username: "alice", Email: "alice@x.com", Password: "hunter22",
	})
	require.NoError(t, err)

	body := f.whoami(t, "Bearer "+token)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["username"])

	// lower-case scheme is accepted too
	body = f.whoami(t, "bearer "+token)
	assert.Equal(t, true, body["authenticated"])
}

func TestResolveAccessRejectsUnrecordedToken(t *testing.T) {
	f := newResolveFixture(t)
	user := models.User{Username: "alice", Email: "alice@x.com", Password: "x", UserStatus: models.RoleOrdinary}
	require.NoError(t, f.db.Create(&user).Error)

	// correctly signed, but never handed out by a login
	token, _, err := f.id.Tokens().Issue(user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, false, f.whoami(t, "Bearer "+token)["authenticated"])
}

func TestResolveAccessAnonymous(t *testing.T) {
	f := newResolveFixture(t)

	assert.Equal(t, false, f.whoami(t, "")["authenticated"])
	assert.Equal(t, false, f.whoami(t, "Bearer not-a-token")["authenticated"])
	assert.Equal(t, false, f.whoami(t, "Basic dXNlcjpwdw==")["authenticated"])
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = bearerToken("Token abc")
	assert.False(t, ok)
}

// brokenStore loads nothing and fails every commit.
type brokenStore struct{}

func (brokenStore) Find(string) ([]byte, bool, error)      { return nil, false, nil }
func (brokenStore) Commit(string, []byte, time.Time) error { return errors.New("disk full on 10.0.0.9") }
func (brokenStore) Delete(string) error                    { return nil }

func TestSessionCommitFailureIsAnError(t *testing.T) {
	sm := NewSessionManager(brokenStore{}, false)
	r := gin.New()
	r.Use(Sessions(sm, quietLogger()))
	r.POST("/login", func(c *gin.Context) {
		sm.Put(c.Request.Context(), "userId", int64(1))
		c.JSON(http.StatusOK, gin.H{"message": "login successful"})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "login successful")
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionCookieIsWrittenOnChange(t *testing.T) {
	sm := NewSessionManager(memstore.New(), false)
	r := gin.New()
	r.Use(Sessions(sm, quietLogger()))
	r.POST("/login", func(c *gin.Context) {
		sm.Put(c.Request.Context(), "userId", int64(1))
		c.JSON(http.StatusOK, gin.H{"message": "login successful"})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}
