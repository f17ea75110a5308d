package routes

import (
	"net/http"
	"time"

	"github.com/alexcata03/Shop-Online/auth"
	orderControllers "github.com/alexcata03/Shop-Online/controllers/order"
	"github.com/alexcata03/Shop-Online/metrics"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything the router hands to handlers.
type Deps struct {
	DB             *gorm.DB
	Sessions       *scs.SessionManager
	Identity       *auth.Identity
	Hub            *orderControllers.Hub
	Log            logrus.FieldLogger
	AllowedOrigins []string
	LoginLimiter   *middleware.RateLimiter
}

// New builds the engine with the global middleware and every route group.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(metrics.Middleware())

	// cors.New panics on an empty origin list
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.Use(middleware.Sessions(d.Sessions, d.Log))
	r.Use(middleware.ResolveAccess(d.Sessions, d.Identity))

	SetupRoutes(r, d)
	return r
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/", landing)

	// Public Auth routes
	SetupAuthRoutes(r, d)

	// Users and their shopping carts
	SetupUserRoutes(r, d)

	// Catalog
	SetupProductRoutes(r, d)

	// order routes
	SetupOrderRoutes(r, d)

	// Privileged-only routes
	SetupAdminRoutes(r, d)
}

func landing(c *gin.Context) {
	a := auth.Access(c)
	body := gin.H{
		"service":       "shop-online",
		"authenticated": a.Authenticated,
	}
	if a.Authenticated {
		body["username"] = a.Username
		body["userStatus"] = a.Role
	}
	c.JSON(http.StatusOK, body)
}
