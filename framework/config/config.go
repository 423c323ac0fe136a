// Package config loads the typed application configuration from the
// environment, reading a .env file first when one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Log    LogConfig
	Cache  CacheConfig
	View   ViewConfig
	Routes RoutesConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
	Key   string

	// PublicDir holds static assets served under /static/.
	PublicDir string
}

type DBConfig struct {
	Driver   string // sqlite | postgres
	Host     string
	Port     string
	Database string // file path for sqlite
	Username string
	Password string
	SSLMode  string

	// DSN overrides the fields above when set.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level      string // debug | info | warn | error
	Directory  string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type CacheConfig struct {
	Store           string // memory | database
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

type ViewConfig struct {
	Dir   string
	Ext   string
	Cache bool
}

type RoutesConfig struct {
	File string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// .env is optional; production sets real environment variables.
	_ = godotenv.Load(files...)

	env := Get("APP_ENV", "local")
	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "GoMVC"),
			Env:   env,
			Debug: GetBool("APP_DEBUG", env != "production"),
			URL:   Get("APP_URL", "http://localhost"),
			Port:  Get("APP_PORT", "8000"),
			Key:   Get("APP_KEY", ""),

			PublicDir: Get("APP_PUBLIC_DIR", "./public"),
		},
		DB: DBConfig{
			Driver:          Get("DB_DRIVER", "sqlite"),
			Host:            Get("DB_HOST", "127.0.0.1"),
			Port:            Get("DB_PORT", "5432"),
			Database:        Get("DB_DATABASE", "storage/app.db"),
			Username:        Get("DB_USERNAME", "postgres"),
			Password:        Get("DB_PASSWORD", ""),
			SSLMode:         Get("DB_SSLMODE", "disable"),
			DSN:             Get("DB_DSN", ""),
			MaxOpenConns:    GetInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    GetInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: GetDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Log: LogConfig{
			Level:      Get("LOG_LEVEL", ""),
			Directory:  Get("LOG_DIR", "storage/logs"),
			MaxSizeMB:  GetInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: GetInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: GetInt("LOG_MAX_AGE_DAYS", 28),
		},
		Cache: CacheConfig{
			Store:           Get("CACHE_STORE", "memory"),
			TTL:             GetDuration("CACHE_TTL", time.Hour),
			MaxEntries:      GetInt("CACHE_MAX_ENTRIES", 10000),
			CleanupInterval: GetDuration("CACHE_CLEANUP_INTERVAL", time.Minute),
		},
		View: ViewConfig{
			Dir:   Get("VIEW_DIR", "./views"),
			Ext:   Get("VIEW_EXT", ".html"),
			Cache: GetBool("VIEW_CACHE", env == "production"),
		},
		Routes: RoutesConfig{
			File: Get("ROUTES_FILE", "routes/web.yaml"),
		},
	}
}

func (c *Config) IsLocal() bool      { return c.App.Env == "local" }
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
func (c *Config) IsTesting() bool    { return c.App.Env == "testing" }

// ConnectionString returns the driver DSN: DSN when set, the database path
// for sqlite, a key=value string for postgres.
func (d DBConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "postgres", "pgsql":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
	default:
		return d.Database
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

// GetDuration returns a duration env value such as "90s" or "1h".
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}
