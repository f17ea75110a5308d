package auth

import (
	"errors"
	"net/http"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/metrics"
	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

var errNoSession = errors.New("no cookie session on request")

// POST /login
func LoginHandler(id *Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in LoginInput
		if err := c.ShouldBind(&in); err != nil {
			render.BindError(c, err)
			return
		}
		s, ok := CookieSession(c)
		if !ok {
			render.Error(c, errNoSession)
			return
		}

		user, token, err := id.Login(c.Request.Context(), s, in.Username, in.Password)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnauthenticated) {
				metrics.RecordLogin("failure")
			} else {
				metrics.RecordLogin("error")
			}
			render.Error(c, err)
			return
		}
		metrics.RecordLogin("success")

		c.JSON(http.StatusOK, gin.H{
			"message": "login successful",
			"token":   token,
			"user":    user,
		})
	}
}

// POST /register
func RegisterHandler(id *Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in RegisterInput
		if err := c.ShouldBind(&in); err != nil {
			render.BindError(c, err)
			return
		}
		s, ok := CookieSession(c)
		if !ok {
			render.Error(c, errNoSession)
			return
		}

		user, token, err := id.Register(c.Request.Context(), s, in)
		if err != nil {
			render.Error(c, err)
			return
		}
		metrics.RecordLogin("registered")

		c.JSON(http.StatusCreated, gin.H{
			"message": "registration successful",
			"token":   token,
			"user":    user,
		})
	}
}

// POST /logout revokes the bearer token the request carried, if any, and
// clears the cookie session.
func LogoutHandler(id *Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b, ok := BearerFromContext(c); ok {
			if err := id.Logout(c.Request.Context(), b); err != nil {
				render.Error(c, err)
				return
			}
		}
		if s, ok := CookieSession(c); ok {
			if err := id.Logout(c.Request.Context(), s); err != nil {
				render.Error(c, err)
				return
			}
		}
		render.Message(c, http.StatusOK, "logged out")
	}
}
