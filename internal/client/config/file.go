package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/wecare/internal/timex"
)

// FileConfig is the DTO a config file decodes into. Pointer fields tell a
// missing key apart from an empty value.
type FileConfig struct {
	ServerURL           *string         `json:"server_url" toml:"server_url"`
	APIPrefix           *string         `json:"api_prefix" toml:"api_prefix"`
	DatabasePath        *string         `json:"database_path" toml:"database_path"`
	CacheVersion        *string         `json:"cache_version" toml:"cache_version"`
	PrecacheManifest    []string        `json:"precache_manifest" toml:"precache_manifest"`
	ReferenceDomains    []string        `json:"reference_domains" toml:"reference_domains"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	ProbeTimeout        *timex.Duration `json:"probe_timeout" toml:"probe_timeout"`
	LogLevel            *string         `json:"log_level" toml:"log_level"`
	LogFormat           *string         `json:"log_format" toml:"log_format"`
	MetricsAddr         *string         `json:"metrics_addr" toml:"metrics_addr"`
	DevServerAddr       *string         `json:"devserver_addr" toml:"devserver_addr"`
}

// LoadFile overlays c with the keys present in the file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported format %q", path, ext)
	}

	fc.apply(c)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.ServerURL, fc.ServerURL)
	setString(&c.APIPrefix, fc.APIPrefix)
	setString(&c.DatabasePath, fc.DatabasePath)
	setString(&c.CacheVersion, fc.CacheVersion)
	if fc.PrecacheManifest != nil {
		c.PrecacheManifest = fc.PrecacheManifest
	}
	if fc.ReferenceDomains != nil {
		c.ReferenceDomains = fc.ReferenceDomains
	}
	setDuration(&c.OnlineCheckInterval, fc.OnlineCheckInterval)
	setDuration(&c.ProbeTimeout, fc.ProbeTimeout)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.DevServerAddr, fc.DevServerAddr)
}

// WriteTOML writes c in the config file format, so the output of
// "wecare config" can be saved and loaded back.
func (c *Config) WriteTOML(w io.Writer) error {
	fc := FileConfig{
		ServerURL:           &c.ServerURL,
		APIPrefix:           &c.APIPrefix,
		DatabasePath:        &c.DatabasePath,
		CacheVersion:        &c.CacheVersion,
		PrecacheManifest:    c.PrecacheManifest,
		ReferenceDomains:    c.ReferenceDomains,
		OnlineCheckInterval: &timex.Duration{Duration: c.OnlineCheckInterval},
		ProbeTimeout:        &timex.Duration{Duration: c.ProbeTimeout},
		LogLevel:            &c.LogLevel,
		LogFormat:           &c.LogFormat,
		MetricsAddr:         &c.MetricsAddr,
		DevServerAddr:       &c.DevServerAddr,
	}
	return toml.NewEncoder(w).Encode(fc)
}
