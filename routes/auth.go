package routes

import (
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers login, register and logout. The first two are
// throttled per client IP.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	limited := r.Group("")
	if d.LoginLimiter != nil {
		limited.Use(d.LoginLimiter.Middleware())
	}
	{
		limited.POST("/login", auth.LoginHandler(d.Identity))
		limited.POST("/register", auth.RegisterHandler(d.Identity))
	}
	r.POST("/logout", auth.LogoutHandler(d.Identity))
}
