package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/config"
	orderControllers "github.com/alexcata03/Shop-Online/controllers/order"
	userControllers "github.com/alexcata03/Shop-Online/controllers/user"
	"github.com/alexcata03/Shop-Online/database"
	"github.com/alexcata03/Shop-Online/logger"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/alexcata03/Shop-Online/routes"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every command needs once configuration is loaded.
type app struct {
	cfg config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg, logger.Gorm(log))
	if err != nil {
		log.WithError(err).Error("database connection failed")
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "shop-online",
		Short:        "Shop-Online e-commerce backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newPromoteCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if err := database.Migrate(a.db); err != nil {
				return err
			}
			a.log.Info("migration complete")
			return nil
		},
	}
}

func newPromoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant a user the privileged role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			user, err := userControllers.Promote(context.Background(), a.db, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d) is now privileged\n", user.Username, user.ID)
			return nil
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := setup()
	if err != nil {
		return err
	}
	if err := database.Migrate(a.db); err != nil {
		a.log.WithError(err).Error("auto-migrate failed")
		return err
	}

	var store scs.Store
	switch a.cfg.SessionStore {
	case "memory":
		store = memstore.New()
	default:
		dbStore := database.NewSessionStore(a.db, a.log, a.cfg.SessionCleanupInterval)
		defer dbStore.StopCleanup()
		store = dbStore
	}

	identity := auth.NewIdentity(
		a.db,
		auth.NewPasswordHasher(a.cfg.PasswordPepper, a.cfg.BcryptCost),
		auth.NewTokenIssuer(a.cfg.JWTSecret, auth.SessionIdleTimeout),
	)
	hub := orderControllers.NewHub(a.cfg.AllowedOrigins(), a.log)
	limiter := middleware.NewRateLimiter(a.cfg.LoginRateLimit, a.cfg.LoginRateBurst, a.log)

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := routes.New(routes.Deps{
		DB:             a.db,
		Sessions:       middleware.NewSessionManager(store, a.cfg.SessionCookieSecure),
		Identity:       identity,
		Hub:            hub,
		Log:            a.log,
		AllowedOrigins: a.cfg.AllowedOrigins(),
		LoginLimiter:   limiter,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				limiter.Cleanup(now)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", a.cfg.Port).Info("server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
