package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/filex"
)

// Config holds runtime settings for the device core and the dev server.
type Config struct {
	ServerURL           string
	APIPrefix           string
	DatabasePath        string
	CacheVersion        string
	PrecacheManifest    []string
	ReferenceDomains    []string
	OnlineCheckInterval time.Duration
	ProbeTimeout        time.Duration
	LogLevel            string
	LogFormat           string
	MetricsAddr         string
	DevServerAddr       string
}

// DefaultManifest is the application shell cached at install time.
var DefaultManifest = []string{
	"/",
	"/static/db.js",
	"/static/api.js",
	"/static/app.js",
	"/manifest.json",
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.APIPrefix = "/api/"
	c.DatabasePath = filepath.Join(filex.DefaultDataDir(), "wecare.db")
	c.CacheVersion = "wecare-v2"
	c.PrecacheManifest = append([]string(nil), DefaultManifest...)
	c.ReferenceDomains = []string{string(models.DomainDoctors), string(models.DomainHospitals), string(models.DomainNGOs)}
	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
	c.DevServerAddr = "127.0.0.1:8000"
}

// Default returns a Config with defaults applied.
func Default() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

// Domains parses ReferenceDomains.
func (c *Config) Domains() ([]models.Domain, error) {
	out := make([]models.Domain, 0, len(c.ReferenceDomains))
	for _, s := range c.ReferenceDomains {
		d, err := models.ParseDomain(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server_url %q must be an absolute URL", c.ServerURL))
	}
	if c.APIPrefix == "" || c.APIPrefix[0] != '/' {
		errs = append(errs, fmt.Errorf("api_prefix %q must start with /", c.APIPrefix))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.CacheVersion == "" {
		errs = append(errs, errors.New("cache_version is required"))
	}
	if _, err := c.Domains(); err != nil {
		errs = append(errs, fmt.Errorf("reference_domains: %w", err))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online_check_interval must be positive"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe_timeout must be positive"))
	}
	switch c.LogFormat {
	case "text", "json", "zap":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text, json or zap", c.LogFormat))
	}
	return errors.Join(errs...)
}
