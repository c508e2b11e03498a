package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where seminote stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// Embedding provider configuration
	EmbeddingBaseURL    string        // SEMINOTE_EMBEDDING_BASE_URL (default: https://api.openai.com/v1)
	EmbeddingAPIKey     string        // SEMINOTE_EMBEDDING_API_KEY
	EmbeddingModel      string        // SEMINOTE_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingDimensions int           // SEMINOTE_EMBEDDING_DIMENSIONS (default: 1536, must match schema)
	EmbeddingMaxRetries int           // SEMINOTE_EMBEDDING_MAX_RETRIES (default: 3)
	EmbeddingTimeout    time.Duration // SEMINOTE_EMBEDDING_TIMEOUT (default: 30s)

	// Search tuning. The minimum score is empirical, not structural; it is
	// configurable with the original value as default.
	SearchMinScore float64 // SEMINOTE_SEARCH_MIN_SCORE (default: 0.1)
	PageSize       int     // SEMINOTE_PAGE_SIZE (default: 50)
	MaxOffset      int     // SEMINOTE_MAX_OFFSET (default: 10000)

	// Request handling
	RequestTimeout time.Duration // SEMINOTE_REQUEST_TIMEOUT (default: 30s)
	RateLimitRPS   float64       // SEMINOTE_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst int           // SEMINOTE_RATE_LIMIT_BURST (default: 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// UseStubEncoder reports whether the process should run with the
// deterministic stub encoder instead of a remote embedding provider.
// Demo mode has no external dependencies.
func (p *Profile) UseStubEncoder() bool {
	return p.Mode == "demo" || p.EmbeddingAPIKey == ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.EmbeddingBaseURL == "" {
		p.EmbeddingBaseURL = "https://api.openai.com/v1"
	}
	if p.EmbeddingModel == "" {
		p.EmbeddingModel = "text-embedding-3-small"
	}
	if p.EmbeddingDimensions <= 0 {
		p.EmbeddingDimensions = 1536
	}
	if p.EmbeddingMaxRetries <= 0 {
		p.EmbeddingMaxRetries = 3
	}
	if p.EmbeddingTimeout <= 0 {
		p.EmbeddingTimeout = 30 * time.Second
	}
	if p.SearchMinScore == 0 {
		p.SearchMinScore = 0.1
	}
	if p.PageSize <= 0 {
		p.PageSize = 50
	}
	if p.MaxOffset <= 0 {
		p.MaxOffset = 10000
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 30 * time.Second
	}
	if p.RateLimitRPS <= 0 {
		p.RateLimitRPS = 10
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = 20
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("seminote_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}
