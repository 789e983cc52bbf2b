// Package config reads process configuration from the environment and
// builds the shared logger.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshills/contentsearch/internal/storage"
)

// EnvPrefix namespaces every variable this package reads
const EnvPrefix = "CONTENTSEARCH_"

// Defaults
const (
	DefaultDBFile        = "cache.db"
	DefaultCacheMaxSize  = 100
	DefaultCacheTTL      = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
	DefaultPersistTTL    = 24 * time.Hour
	DefaultRemoteTimeout = 10 * time.Second
	DefaultLocale        = "zh"
	DefaultLogLevel      = "info"
)

// Config holds every runtime setting
type Config struct {
	Store     string // sqlite, redis or memory
	DBPath    string
	RedisAddr string

	ContentPath string // File or directory of content documents

	RemoteURL     string // Empty means serve from the local engine
	RemoteTimeout time.Duration
	RemoteRPS     float64

	CacheMaxSize  int
	CacheTTL      time.Duration
	SweepInterval time.Duration
	PersistTTL    time.Duration

	Locale string

	LogFile  string // Empty logs to stderr
	LogLevel string

	MetricsAddr string // Empty disables the /metrics listener
}

// Load reads .env (when present) and then the environment. Variables that
// are already set win over .env.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Store:         strings.ToLower(p.str("STORE", storage.BackendSQLite)),
		DBPath:        p.str("DB_PATH", defaultDBPath()),
		RedisAddr:     p.str("REDIS_ADDR", ""),
		ContentPath:   p.str("CONTENT_PATH", ""),
		RemoteURL:     p.str("REMOTE_URL", ""),
		RemoteTimeout: p.duration("REMOTE_TIMEOUT", DefaultRemoteTimeout),
		RemoteRPS:     p.float("REMOTE_RPS", 0),
		CacheMaxSize:  p.integer("CACHE_MAX_SIZE", DefaultCacheMaxSize),
		CacheTTL:      p.duration("CACHE_TTL", DefaultCacheTTL),
		SweepInterval: p.duration("SWEEP_INTERVAL", DefaultSweepInterval),
		PersistTTL:    p.duration("PERSIST_TTL", DefaultPersistTTL),
		Locale:        p.str("LOCALE", DefaultLocale),
		LogFile:       p.str("LOG_FILE", ""),
		LogLevel:      strings.ToLower(p.str("LOG_LEVEL", DefaultLogLevel)),
		MetricsAddr:   p.str("METRICS_ADDR", ""),
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Store {
	case storage.BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%sDB_PATH is required for the sqlite store", EnvPrefix)
		}
	case storage.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%sREDIS_ADDR is required for the redis store", EnvPrefix)
		}
	case storage.BackendMemory:
	default:
		return fmt.Errorf("%sSTORE: unknown store %q", EnvPrefix, c.Store)
	}

	if c.CacheMaxSize <= 0 {
		return fmt.Errorf("%sCACHE_MAX_SIZE must be positive", EnvPrefix)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%sCACHE_TTL must be positive", EnvPrefix)
	}
	if c.RemoteRPS < 0 {
		return fmt.Errorf("%sREMOTE_RPS must not be negative", EnvPrefix)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// StorageConfig maps the settings onto a storage.Config
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:   c.Store,
		Path:      c.DBPath,
		RedisAddr: c.RedisAddr,
	}
}

// defaultDBPath is ~/.contentsearch/cache.db, or ./cache.db without a home
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDBFile
	}
	return filepath.Join(home, ".contentsearch", DefaultDBFile)
}

// parser reads typed values and collects every malformed one
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(name, def string) string {
	if v := strings.TrimSpace(p.getenv(EnvPrefix + name)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(name string, def int) int {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return n
}

func (p *parser) float(name string, def float64) float64 {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return f
}

func (p *parser) duration(name string, def time.Duration) time.Duration {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return d
}
