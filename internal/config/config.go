package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataFile      string   // path to the bookmark datastore file
	HistoryFile   string   // path to the history log file
	LockFile      string   // path to the advisory lock file
	SeedFile      string   // optional bookmarks.yaml to import at startup ("" = disabled)
	TagSeparator  string   // single character, default " "
	ExtraSchemes  []string // URL schemes allowed besides http/https
	PageSize      int      // default page size for listings
	ExposePrivate bool     // true => serve private bookmarks (deploy behind your own auth)

	LockTimeout    time.Duration // max wait to acquire the write lock
	LockRetry      time.Duration // polling interval while the lock is held
	LockStaleAfter time.Duration // age at which an orphaned lock is reclaimed

	ThumbnailsEnabled   bool          // false => no thumbnail worker
	ThumbnailInterval   time.Duration // interval between thumbnail sweeps
	ThumbnailRetryAfter time.Duration // retry window after a failed retrieval
	ThumbnailTimeout    time.Duration // per-probe HTTP timeout

	// Redis page cache (optional, empty addr = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
}

// reservedSeparators can never be used as the tag separator: '-' and '*'
// carry query semantics, '.' collides with hashed/system tags.
const reservedSeparators = "-.*"

// fileConfig mirrors the optional TOML config file. Env vars override it.
type fileConfig struct {
	Server struct {
		ListenPort string `toml:"listen_port"`
		LogLevel   string `toml:"log_level"`
	} `toml:"server"`
	Store struct {
		DataFile     string `toml:"data_file"`
		HistoryFile  string `toml:"history_file"`
		LockFile     string `toml:"lock_file"`
		SeedFile     string `toml:"seed_file"`
		TagSeparator string `toml:"tag_separator"`
		PageSize     int    `toml:"page_size"`
	} `toml:"store"`
	Redis struct {
		Addr string `toml:"addr"`
	} `toml:"redis"`
}

func Load() *Config {
	file := loadFile(getenv("MARQUE_CONFIG_FILE", ""))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARQUE_LISTEN_PORT", or(file.Server.ListenPort, ":8080")),
		ShutdownTimeout: mustDuration("MARQUE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MARQUE_LOG_LEVEL", or(file.Server.LogLevel, "info")),
		PrettyLog: mustBool("MARQUE_PRETTY_LOG", true),

		// Stores
		DataFile:      getenv("MARQUE_DATA_FILE", or(file.Store.DataFile, "data/datastore.php")),
		HistoryFile:   getenv("MARQUE_HISTORY_FILE", or(file.Store.HistoryFile, "data/history.php")),
		LockFile:      getenv("MARQUE_LOCK_FILE", or(file.Store.LockFile, "data/.lock")),
		SeedFile:      getenv("MARQUE_SEED_FILE", file.Store.SeedFile),
		TagSeparator:  getenv("MARQUE_TAG_SEPARATOR", or(file.Store.TagSeparator, " ")),
		ExtraSchemes:  splitAndTrim(getenv("MARQUE_EXTRA_SCHEMES", "ftp,ftps,magnet")),
		PageSize:      getenvInt("MARQUE_PAGE_SIZE", orInt(file.Store.PageSize, 20)),
		ExposePrivate: mustBool("MARQUE_EXPOSE_PRIVATE", false),

		LockTimeout:    mustDuration("MARQUE_LOCK_TIMEOUT", 10*time.Second),
		LockRetry:      mustDuration("MARQUE_LOCK_RETRY", 50*time.Millisecond),
		LockStaleAfter: mustDuration("MARQUE_LOCK_STALE_AFTER", time.Minute),

		// Thumbnails
		ThumbnailsEnabled:   mustBool("MARQUE_THUMBNAILS_ENABLED", true),
		ThumbnailInterval:   mustDuration("MARQUE_THUMBNAIL_INTERVAL", time.Hour),
		ThumbnailRetryAfter: mustDuration("MARQUE_THUMBNAIL_RETRY_AFTER", 24*time.Hour),
		ThumbnailTimeout:    mustDuration("MARQUE_THUMBNAIL_TIMEOUT", 5*time.Second),

		// Redis page cache (optional)
		RedisAddr:           getenv("MARQUE_REDIS_ADDR", file.Redis.Addr),
		RedisUser:           getenv("MARQUE_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("MARQUE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("MARQUE_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("MARQUE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisConnectTimeout: mustDuration("MARQUE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("MARQUE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("MARQUE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("MARQUE_REDIS_PING_TIMEOUT", 5*time.Second),
	}

	validateSeparator(cfg.TagSeparator)

	return cfg
}

func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		panic(fmt.Sprintf("❌ FATAL: failed to parse config file %s: %v", path, err))
	}
	return fc
}

func validateSeparator(sep string) {
	if len(sep) != 1 {
		panic(fmt.Sprintf("❌ FATAL: tag separator must be a single character, got %q", sep))
	}
	if strings.ContainsAny(sep, reservedSeparators) {
		panic(fmt.Sprintf("❌ FATAL: tag separator %q is reserved", sep))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid boolean value for %s: %s", key, v))
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid duration value for %s: %s", key, v))
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
