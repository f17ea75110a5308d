package middleware

import (
	"errors"
	"strings"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// ResolveAccess loads the caller's AccessContext. A request carrying
// "Authorization: Bearer <token>" is resolved from the token; otherwise from
// the cookie session. Anonymous requests continue; handlers decide whether
// authentication is required.
func ResolveAccess(sm *scs.SessionManager, id *auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := auth.NewSCSSession(sm, c.Request.Context())
		auth.SetCookieSession(c, cookie)

		var session auth.Session = cookie
		if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
			claims, err := id.Tokens().Parse(raw)
			if err != nil {
				auth.SetAccess(c, auth.Anonymous(apperrors.New(apperrors.ErrUnauthenticated, "invalid or expired token")))
				c.Next()
				return
			}
			bearer := auth.NewBearerSession(raw, claims)
			auth.SetBearerSession(c, bearer)
			session = bearer
		}

		access, err := id.Authenticate(c.Request.Context(), session)
		if err != nil && !errors.Is(err, apperrors.ErrUnauthenticated) {
			render.Error(c, err)
			return
		}
		auth.SetAccess(c, access)
		if access.Authenticated {
			c.Set("user_id", access.UserID)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(c *gin.Context) {
	if err := auth.Access(c).Require(); err != nil {
		render.Error(c, err)
		return
	}
	c.Next()
}

// RequireRole rejects requests whose role is not exactly role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(auth.Access(c), role); err != nil {
			render.Error(c, err)
			return
		}
		c.Next()
	}
}
