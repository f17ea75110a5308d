package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port string `env:"PORT,default=8080"`

	// Database
	DBDriver       string `env:"DB_DRIVER,default=postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBHost         string `env:"DB_HOST,default=localhost"`
	DBPort         string `env:"DB_PORT,default=5432"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS,default=10"`

	// Identity
	JWTSecret      string `env:"JWT_SECRET,required"`
	PasswordPepper string `env:"PASSWORD_PEPPER"`
	BcryptCost     int    `env:"BCRYPT_COST,default=12"`

	// Sessions
	SessionStore           string        `env:"SESSION_STORE,default=database"`
	SessionCookieSecure    bool          `env:"SESSION_COOKIE_SECURE,default=false"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL,default=1h"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN,default=http://localhost:5173"`

	// Login and register are throttled per client IP.
	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT,default=1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST,default=5"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads an optional .env file and decodes the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations envdecode cannot express.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	switch c.SessionStore {
	case "memory", "database":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q (want memory or database)", c.SessionStore)
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" && (c.DBUser == "" || c.DBName == "") {
		return fmt.Errorf("DATABASE_URL or DB_USER and DB_NAME must be set")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "sqlite" {
		return "shop.db"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// AllowedOrigins splits FRONTEND_ORIGIN on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
