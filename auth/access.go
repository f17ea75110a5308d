package auth

import (
	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
)

// AccessContext is the resolved identity of a request.
type AccessContext struct {
	Authenticated bool
	UserID        uint
	Username      string
	Role          models.Role

	// why the request is anonymous, if it is
	err error
}

// Anonymous returns an unauthenticated context. cause is reported by Require
// and defaults to ErrUnauthenticated.
func Anonymous(cause error) AccessContext {
	if cause == nil {
		cause = apperrors.ErrUnauthenticated
	}
	return AccessContext{err: cause}
}

func NewAccessContext(u models.User) AccessContext {
	return AccessContext{
		Authenticated: true,
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.UserStatus,
	}
}

// Require returns an Unauthenticated error unless a is authenticated.
func (a AccessContext) Require() error {
	if a.Authenticated {
		return nil
	}
	if a.err != nil {
		return a.err
	}
	return apperrors.ErrUnauthenticated
}

func (a AccessContext) IsPrivileged() bool {
	return a.Authenticated && a.Role == models.RolePrivileged
}

// Authorize requires authentication and exactly role. There is no ordering
// between roles.
func Authorize(a AccessContext, role models.Role) error {
	if err := a.Require(); err != nil {
		return err
	}
	if a.Role != role {
		return apperrors.ErrForbidden
	}
	return nil
}

// AuthorizeOwner passes for the user named username and for privileged users.
func AuthorizeOwner(a AccessContext, username string) error {
	if err := a.Require(); err != nil {
		return err
	}
	if a.Username != username && !a.IsPrivileged() {
		return apperrors.ErrForbidden
	}
	return nil
}

// AuthorizeUser is AuthorizeOwner keyed by user id.
func AuthorizeUser(a AccessContext, userID uint) error {
	if err := a.Require(); err != nil {
		return err
	}
	if a.UserID != userID && !a.IsPrivileged() {
		return apperrors.ErrForbidden
	}
	return nil
}

const (
	accessKey  = "access"
	sessionKey = "cookie_session"
	bearerKey  = "bearer_session"
)

func SetAccess(c *gin.Context, a AccessContext) { c.Set(accessKey, a) }

// Access returns the context resolved by the session middleware, or an
// anonymous one when none ran.
func Access(c *gin.Context) AccessContext {
	if v, ok := c.Get(accessKey); ok {
		if a, ok := v.(AccessContext); ok {
			return a
		}
	}
	return Anonymous(nil)
}

func SetCookieSession(c *gin.Context, s Session) { c.Set(sessionKey, s) }

// CookieSession returns the writable session for this request.
func CookieSession(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(Session)
	return s, ok
}

func SetBearerSession(c *gin.Context, b *BearerSession) { c.Set(bearerKey, b) }

// BearerFromContext returns the bearer session the request authenticated
// with, if any.
func BearerFromContext(c *gin.Context) (*BearerSession, bool) {
	v, ok := c.Get(bearerKey)
	if !ok {
		return nil, false
	}
	b, ok := v.(*BearerSession)
	return b, ok
}
