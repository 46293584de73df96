package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// devJWTSecret is only accepted outside production.
const devJWTSecret = "default-dev-secret"

// Config holds the application configuration.
type Config struct {
	ServerPort    int        `yaml:"port"`
	Environment   string     `yaml:"environment"`
	LogLevel      string     `yaml:"log_level"`
	DatabaseURL   string     `yaml:"database_url"` // file path for SQLite, postgres:// URL for PostgreSQL
	RedisAddr     string     `yaml:"redis_addr"`   // optional; enables the Redis token denylist
	CORSOrigins   []string   `yaml:"cors_origins"`
	AuthRateLimit int        `yaml:"auth_rate_limit"` // requests per minute per client IP
	TrustProxy    bool       `yaml:"trust_proxy"`     // take the client IP from X-Forwarded-For/X-Real-IP
	Auth          AuthConfig `yaml:"auth"`
	Riot          RiotConfig `yaml:"riot"`
}

// AuthConfig configures password digests and session tokens.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// RiotConfig configures the upstream Riot API clients.
type RiotConfig struct {
	APIKey         string        `yaml:"api_key"`
	PlatformURL    string        `yaml:"platform_url"`
	ContinentalURL string        `yaml:"continental_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		ServerPort:    5000,
		Environment:   "production",
		LogLevel:      "info",
		DatabaseURL:   "./splinter.db",
		CORSOrigins:   []string{"http://localhost:5173"},
		AuthRateLimit: 10,
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Riot: RiotConfig{
			PlatformURL:    "https://na1.api.riotgames.com",
			ContinentalURL: "https://americas.api.riotgames.com",
			Timeout:        10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables, which take precedence.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML file path. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	if c.ServerPort, err = getEnvInt("PORT", c.ServerPort); err != nil {
		return err
	}
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	if c.AuthRateLimit, err = getEnvInt("AUTH_RATE_LIMIT", c.AuthRateLimit); err != nil {
		return err
	}
	if c.TrustProxy, err = getEnvBool("TRUST_PROXY", c.TrustProxy); err != nil {
		return err
	}

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	if c.Auth.TokenTTL, err = getEnvDuration("JWT_EXPIRATION", c.Auth.TokenTTL); err != nil {
		return err
	}
	if c.Auth.BcryptCost, err = getEnvInt("BCRYPT_COST", c.Auth.BcryptCost); err != nil {
		return err
	}

	c.Riot.APIKey = getEnv("RIOT_API_KEY", c.Riot.APIKey)
	c.Riot.PlatformURL = getEnv("RIOT_PLATFORM_URL", c.Riot.PlatformURL)
	c.Riot.ContinentalURL = getEnv("RIOT_CONTINENTAL_URL", c.Riot.ContinentalURL)
	if c.Riot.Timeout, err = getEnvDuration("RIOT_TIMEOUT", c.Riot.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port %d", c.ServerPort)
	}
	if c.Environment != "development" && c.Environment != "production" && c.Environment != "test" {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be changed from the development default in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range 4-31", c.Auth.BcryptCost)
	}
	if c.Riot.Timeout <= 0 {
		return fmt.Errorf("riot timeout must be positive, got %s", c.Riot.Timeout)
	}
	if c.Riot.PlatformURL == "" || c.Riot.ContinentalURL == "" {
		return errors.New("both riot platform and continental URLs are required")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("auth rate limit must be positive, got %d", c.AuthRateLimit)
	}
	return nil
}

// IsProduction reports whether the production safeguards apply: a real JWT
// secret and Secure cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether error details may be sent to clients. Only an
// explicit APP_ENV=development enables it.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DatabaseDriver returns "postgres" for postgres URLs and "sqlite" otherwise.
func (c *Config) DatabaseDriver() string {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
