package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything read from the environment at startup.
type Config struct {
	MainRoutes    string `env:"MAIN_ROUTES" envDefault:"/api/v1"`
	AppPort       string `env:"APP_PORT" envDefault:"9000"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"biblio_admin_key_secret"`
	JWTExpiration int    `env:"JWT_EXPIRATION" envDefault:"86400"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"biblio"`
	DBDebug    bool   `env:"DB_DEBUG" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://127.0.0.1:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
	ClaimRetries  uint  `env:"COLLOCATION_CLAIM_RETRIES" envDefault:"3"`
	SeedFile      string `env:"SEED_FILE"`
}

// TokenTTL is the lifetime of issued admin tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Second
}

// LoadConfig reads .env files when present and parses the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	cfg.AllowedOrigins = trimOrigins(cfg.AllowedOrigins)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load env files")
}

func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SetupCORS allows the configured admin front-ends to call the API.
func SetupCORS(app *fiber.App, cfg *Config) {
	origins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "" && origins != "*",
	}))
}
