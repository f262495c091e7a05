package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single holiday data source.
type SourceConfig struct {
	// ID is an internal identifier used as the record source tag.
	ID string `yaml:"id" json:"id"`

	// Kind selects the parser: "jcal", "ics", "html", or "statutory".
	Kind string `yaml:"kind" json:"kind"`

	// URL is the endpoint. A "{year}" placeholder marks a per-year page
	// and is expanded once for each year in the window.
	URL string `yaml:"url" json:"url"`

	// Lang says which name field this source feeds: "en" or "zh".
	// Ignored for statutory sources.
	Lang string `yaml:"lang" json:"lang"`

	// Local is an optional path to a cached local copy used when both the
	// network and the disk cache come up empty. May contain "{year}".
	Local string `yaml:"local,omitempty" json:"local,omitempty"`
}

// PerYear reports whether the source URL expands per year.
func (s SourceConfig) PerYear() bool {
	return strings.Contains(s.URL, "{year}")
}

// RetryConfig controls the fetch retry loop.
type RetryConfig struct {
	// Count is the maximum number of attempts per request.
	Count int `yaml:"count" json:"count"`
	// BackoffMS is the linear backoff unit between attempts, in
	// milliseconds: attempt n waits n*BackoffMS.
	BackoffMS int `yaml:"backoff_ms" json:"backoff_ms"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone holiday dates are interpreted in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// HorizonYears is the length of the expansion/validation window.
	// The window starts at the year before the current one.
	HorizonYears int `yaml:"horizon_years" json:"horizon_years"`

	// OutputDir receives holidays.json, holidays.csv and report.md.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// CacheDir holds the per-URL HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Listen is the HTTP listen address for the -serve preview mode.
	Listen string `yaml:"listen" json:"listen"`

	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Sources are consumed in order; earlier sources win name conflicts.
	Sources []SourceConfig `yaml:"sources" json:"sources"`
}

// DefaultConfig returns an in-memory default configuration pointing at the
// government endpoints.
func DefaultConfig() *Config {
	return &Config{
		Timezone:     "Asia/Hong_Kong",
		HorizonYears: 10,
		OutputDir:    "./out",
		CacheDir:     "./var/http-cache",
		Listen:       "127.0.0.1:8080",
		Retry: RetryConfig{
			Count:     3,
			BackoffMS: 500,
		},
		Sources: []SourceConfig{
			{ID: "1823-jcal-en", Kind: "jcal", URL: "https://www.1823.gov.hk/common/ical/en.json", Lang: "en"},
			{ID: "1823-jcal-tc", Kind: "jcal", URL: "https://www.1823.gov.hk/common/ical/tc.json", Lang: "zh"},
			{ID: "1823-ics-en", Kind: "ics", URL: "https://www.1823.gov.hk/common/ical/en.ics", Lang: "en"},
			{ID: "govhk-en", Kind: "html", URL: "https://www.gov.hk/en/about/abouthk/holiday/{year}.htm", Lang: "en"},
			{ID: "govhk-tc", Kind: "html", URL: "https://www.gov.hk/tc/about/abouthk/holiday/{year}.htm", Lang: "zh"},
			{ID: "labour-statutory", Kind: "statutory", URL: "https://www.labour.gov.hk/eng/news/latest_holidays.htm", Lang: "en"},
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.HorizonYears <= 0 {
		c.HorizonYears = def.HorizonYears
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Retry.Count <= 0 {
		c.Retry.Count = def.Retry.Count
	}
	if c.Retry.BackoffMS <= 0 {
		c.Retry.BackoffMS = def.Retry.BackoffMS
	}
	if c.Sources == nil {
		c.Sources = def.Sources
	}
	for i := range c.Sources {
		if c.Sources[i].Lang == "" {
			c.Sources[i].Lang = "en"
		}
		if c.Sources[i].ID == "" {
			c.Sources[i].ID = c.Sources[i].URL
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".hkholiday-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
