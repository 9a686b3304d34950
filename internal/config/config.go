// Package config holds the explicit run configuration. Values come from the
// environment (optionally seeded from a .env file) and are overridden by CLI
// flags; the resulting struct is passed by value to the components that need
// it. There is no ambient configuration state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when neither environment nor flags provide a value.
const (
	DefaultWorkers   = 8
	DefaultTimeout   = 20 * time.Second
	DefaultDBFile    = "downloads.db"
	DefaultUserAgent = "downloaded using https://github.com/WaffleThief123/myrient-downloader by a user who did not bother to modify the user agent"
)

// Config describes one mirror run.
type Config struct {
	// BaseURL is the listing page the crawl starts from. Normalized to
	// end with a slash so URL resolution stays inside the tree.
	BaseURL string
	// DownloadDir is the mirror root on local disk.
	DownloadDir string
	// Workers is the size of the fetch worker pool.
	Workers int
	// Timeout applies independently to each HTTP request.
	Timeout time.Duration
	// DBFile is the path of the sqlite ledger.
	DBFile string
	// UserAgent is sent with every request.
	UserAgent string
	// Regions, when non-empty, restricts transfers to files whose region
	// tag matches.
	Regions []string
	// CrawlTolerance is the number of subtree listing failures allowed
	// before the run exits non-zero. Transfers proceed either way.
	CrawlTolerance int
}

// FromEnv builds a Config from environment variables, loading a .env file
// first if one is present. Missing variables fall back to defaults.
func FromEnv() Config {
	// .env support is optional, same as the absence of the file.
	_ = godotenv.Load()

	cfg := Config{
		BaseURL:     os.Getenv("BASE_URL"),
		DownloadDir: os.Getenv("DOWNLOAD_DIR"),
		Workers:     intEnv("MAX_WORKERS", DefaultWorkers),
		Timeout:     time.Duration(intEnv("TIMEOUT", int(DefaultTimeout/time.Second))) * time.Second,
		DBFile:      envOr("DB_FILE", DefaultDBFile),
		UserAgent:   envOr("USER_AGENT", DefaultUserAgent),
	}

	if raw := os.Getenv("REGION"); raw != "" {
		cfg.Regions = strings.Split(raw, ",")
	}

	return cfg
}

// Validate checks required fields and normalizes the base URL.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: no base URL specified (use --url or set BASE_URL)")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("config: no download directory specified (use --download-dir or set DOWNLOAD_DIR)")
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DBFile == "" {
		c.DBFile = DefaultDBFile
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
