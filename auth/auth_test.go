package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/database/dbtest"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// memorySession is an in-process Session for identity tests.
type memorySession struct {
	userID      uint
	token       string
	last        time.Time
	established int
	cleared     int
}

func (m *memorySession) UserID() (uint, bool)    { return m.userID, m.userID != 0 }
func (m *memorySession) Token() string           { return m.token }
func (m *memorySession) LastActivity() time.Time { return m.last }
func (m *memorySession) Touch(now time.Time)     { m.last = now }

func (m *memorySession) Establish(_ context.Context, userID uint, token string, now time.Time) error {
	m.userID, m.token, m.last = userID, token, now
	m.established++
	return nil
}

func (m *memorySession) Clear(context.Context) error {
	*m = memorySession{cleared: m.cleared + 1, established: m.established}
	return nil
}

func newIdentity(t *testing.T) (*Identity, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	id := NewIdentity(db, NewPasswordHasher("pepper", bcrypt.MinCost), NewTokenIssuer("secret", 0))
	return id, db
}

func register(t *testing.T, id *Identity, username, email string) models.User {
	t.Helper()
	u, _, err := id.Register(context.Background(), &memorySession{}, RegisterInput{
		Username: username, Email: email, Password: "hunter22",
	})
	require.NoError(t, err)
	return u
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher("pepper", bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotContains(t, hash, "correct horse")
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "wrong"))

	other := NewPasswordHasher("other-pepper", bcrypt.MinCost)
	assert.False(t, other.Verify(hash, "correct horse"))

	h.VerifyNothing("whatever")
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	now := time.Now()

	a, issued, err := issuer.Issue(7, now)
	require.NoError(t, err)
	b, _, err := issuer.Issue(7, now)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	claims, err := issuer.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, now, claims.IssuedAt, time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt, time.Second)

	_, err = NewTokenIssuer("other", time.Hour).Parse(a)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = issuer.Parse(a)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorizeIsStrictEquality(t *testing.T) {
	ordinary := AccessContext{Authenticated: true, UserID: 1, Username: "alice", Role: models.RoleOrdinary}
	privileged := AccessContext{Authenticated: true, UserID: 2, Username: "root", Role: models.RolePrivileged}
	odd := AccessContext{Authenticated: true, UserID: 3, Username: "odd", Role: models.Role(3)}

	assert.NoError(t, Authorize(privileged, models.RolePrivileged))
	assert.ErrorIs(t, Authorize(ordinary, models.RolePrivileged), apperrors.ErrForbidden)
	assert.ErrorIs(t, Authorize(odd, models.RolePrivileged), apperrors.ErrForbidden)
	assert.ErrorIs(t, Authorize(privileged, models.RoleOrdinary), apperrors.ErrForbidden)
	assert.ErrorIs(t, Authorize(Anonymous(nil), models.RoleOrdinary), apperrors.ErrUnauthenticated)

	assert.NoError(t, AuthorizeOwner(ordinary, "alice"))
	assert.ErrorIs(t, AuthorizeOwner(ordinary, "bob"), apperrors.ErrForbidden)
	assert.NoError(t, AuthorizeOwner(privileged, "bob"))
	assert.ErrorIs(t, AuthorizeOwner(odd, "bob"), apperrors.ErrForbidden)

	assert.NoError(t, AuthorizeUser(ordinary, 1))
	assert.ErrorIs(t, AuthorizeUser(ordinary, 2), apperrors.ErrForbidden)
}

func TestAuthenticate(t *testing.T) {
	id, db := newIdentity(t)
	ctx := context.Background()
	alice := register(t, id, "alice", "alice@x.com")
	now := time.Now()
	id.now = func() time.Time { return now }

	t.Run("no user id", func(t *testing.T) {
		_, err := id.Authenticate(ctx, &memorySession{})
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("active session refreshes last activity", func(t *testing.T) {
		s := &memorySession{userID: alice.ID, last: now.Add(-time.Hour)}
		a, err := id.Authenticate(ctx, s)
		require.NoError(t, err)
		assert.True(t, a.Authenticated)
		assert.Equal(t, "alice", a.Username)
		assert.Equal(t, models.RoleOrdinary, a.Role)
		assert.Equal(t, now, s.last)
	})

	t.Run("idle session is cleared", func(t *testing.T) {
		s := &memorySession{userID: alice.ID, last: now.Add(-SessionIdleTimeout - time.Minute)}
		a, err := id.Authenticate(ctx, s)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		assert.False(t, a.Authenticated)
		assert.Equal(t, 1, s.cleared)
		_, ok := s.UserID()
		assert.False(t, ok)
	})

	t.Run("unknown user is cleared", func(t *testing.T) {
		s := &memorySession{userID: alice.ID + 100, last: now}
		a, err := id.Authenticate(ctx, s)
		assert.ErrorIs(t, err, ErrUnknownUser)
		assert.ErrorIs(t, a.Require(), ErrUnknownUser)
		assert.Equal(t, 1, s.cleared)
	})

	t.Run("role comes from the database", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.ID).
			Update("user_status", models.RolePrivileged).Error)
		a, err := id.Authenticate(ctx, &memorySession{userID: alice.ID, last: now})
		require.NoError(t, err)
		assert.True(t, a.IsPrivileged())
	})
}

func TestLogin(t *testing.T) {
	id, _ := newIdentity(t)
	ctx := context.Background()
	alice := register(t, id, "alice", "alice@x.com")

	s := &memorySession{}
	user, token, err := id.Login(ctx, s, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, alice.ID, s.userID)
	assert.Equal(t, token, s.token)

	claims, err := id.Tokens().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.UserID)

	// a second login rotates the token
	_, second, err := id.Login(ctx, s, "alice", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, token, second)

	untouched := &memorySession{userID: 42, token: "keep"}
	_, _, err = id.Login(ctx, untouched, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, &memorySession{userID: 42, token: "keep"}, untouched)

	_, _, err = id.Login(ctx, untouched, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, untouched.established)
}

func TestRegister(t *testing.T) {
	id, db := newIdentity(t)
	ctx := context.Background()

	s := &memorySession{}
	u, token, err := id.Register(ctx, s, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrdinary, u.UserStatus)
	assert.Equal(t, u.ID, s.userID)
	assert.NotEmpty(t, token)

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.NotEqual(t, "hunter22", stored.Password)
	assert.True(t, id.Passwords().Verify(stored.Password, "hunter22"))

	_, _, err = id.Register(ctx, &memorySession{}, RegisterInput{Username: "alice", Email: "other@x.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	_, _, err = id.Register(ctx, &memorySession{}, RegisterInput{Username: "bob", Email: "alice@x.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = id.Register(ctx, &memorySession{}, RegisterInput{Username: " ", Email: "x@x.com", Password: "p"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestClassifyDuplicate(t *testing.T) {
	id, db := newIdentity(t)
	alice := register(t, id, "alice", "alice@x.com")

	assert.ErrorIs(t, ClassifyDuplicate(db, 0, "alice", "new@x.com"), ErrUsernameTaken)
	assert.ErrorIs(t, ClassifyDuplicate(db, 0, "new", "alice@x.com"), ErrEmailTaken)
	err := ClassifyDuplicate(db, alice.ID, "alice", "alice@x.com")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLogoutIsIdempotent(t *testing.T) {
	id, _ := newIdentity(t)
	s := &memorySession{userID: 1, token: "t"}
	require.NoError(t, id.Logout(context.Background(), s))
	require.NoError(t, id.Logout(context.Background(), s))
	_, ok := s.UserID()
	assert.False(t, ok)
}

func TestBearerSessionIsReadOnly(t *testing.T) {
	now := time.Now()
	b := NewBearerSession("raw", TokenClaims{UserID: 5, IssuedAt: now})
	uid, ok := b.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(5), uid)
	assert.Equal(t, now, b.LastActivity())
	assert.True(t, errors.Is(b.Establish(context.Background(), 1, "x", now), ErrReadOnlySession))
	assert.NoError(t, b.Clear(context.Background()))
}

func bearerFor(t *testing.T, id *Identity, token string) *BearerSession {
	t.Helper()
	claims, err := id.Tokens().Parse(token)
	require.NoError(t, err)
	return NewBearerSession(token, claims)
}

func TestBearerTokenFollowsSessionLifecycle(t *testing.T) {
	id, db := newIdentity(t)
	ctx := context.Background()

	cookie := &memorySession{}
	_, token, err := id.Register(ctx, cookie, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "hunter22"})
	require.NoError(t, err)

	a, err := id.Authenticate(ctx, bearerFor(t, id, token))
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Username)

	// logging the cookie session out kills the token it was issued with
	require.NoError(t, id.Logout(ctx, cookie))
	a, err = id.Authenticate(ctx, bearerFor(t, id, token))
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.False(t, a.Authenticated)

	// a later login on the same session revokes the earlier token
	_, first, err := id.Login(ctx, cookie, "alice", "hunter22")
	require.NoError(t, err)
	_, second, err := id.Login(ctx, cookie, "alice", "hunter22")
	require.NoError(t, err)
	_, err = id.Authenticate(ctx, bearerFor(t, id, first))
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = id.Authenticate(ctx, bearerFor(t, id, second))
	require.NoError(t, err)

	// logging out with the bearer itself revokes it too
	bearer := bearerFor(t, id, second)
	require.NoError(t, id.Logout(ctx, bearer))
	_, err = id.Authenticate(ctx, bearerFor(t, id, second))
	assert.ErrorIs(t, err, ErrTokenRevoked)

	var live int64
	require.NoError(t, db.Model(&models.SessionToken{}).Count(&live).Error)
	assert.Zero(t, live)
}

func TestUnrecordedTokenIsRejected(t *testing.T) {
	id, _ := newIdentity(t)
	alice := register(t, id, "alice", "alice@x.com")

	raw, claims, err := id.Tokens().Issue(alice.ID, time.Now())
	require.NoError(t, err)
	_, err = id.Authenticate(context.Background(), NewBearerSession(raw, claims))
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
