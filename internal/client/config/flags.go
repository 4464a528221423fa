package config

import (
	"github.com/spf13/pflag"
)

// Flags binds Config fields to command-line flags. Only flags the user set
// explicitly override the file.
type Flags struct {
	ConfigPath string

	fs     *pflag.FlagSet
	values Config
}

// Bind registers the flags on fs with defaults as their shown values.
func Bind(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	f.values.LoadDefaults()
	v := &f.values

	fs.StringVarP(&f.ConfigPath, "config", "c", "", "config file (.json or .toml)")
	fs.StringVarP(&v.ServerURL, "server", "a", v.ServerURL, "base URL of the WeCare service")
	fs.StringVar(&v.APIPrefix, "api-prefix", v.APIPrefix, "URL path prefix that is never cached")
	fs.StringVar(&v.DatabasePath, "db", v.DatabasePath, "path of the device database")
	fs.StringVar(&v.CacheVersion, "cache-version", v.CacheVersion, "name of the current cache generation")
	fs.StringSliceVar(&v.PrecacheManifest, "manifest", v.PrecacheManifest, "resources cached at install")
	fs.StringSliceVar(&v.ReferenceDomains, "domains", v.ReferenceDomains, "reference domains mirrored on the device")
	fs.DurationVarP(&v.OnlineCheckInterval, "interval", "i", v.OnlineCheckInterval, "online check interval")
	fs.DurationVar(&v.ProbeTimeout, "probe-timeout", v.ProbeTimeout, "timeout of one reachability probe")
	fs.StringVar(&v.LogLevel, "log-level", v.LogLevel, "debug, info, warn or error")
	fs.StringVar(&v.LogFormat, "log-format", v.LogFormat, "text, json or zap")
	fs.StringVar(&v.MetricsAddr, "metrics-addr", v.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&v.DevServerAddr, "listen", v.DevServerAddr, "dev server listen address")
	return f
}

// Resolve builds the effective Config: defaults, then the config file, then
// the flags that were set.
func (f *Flags) Resolve() (*Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		if err := cfg.LoadFile(f.ConfigPath); err != nil {
			return nil, err
		}
	}

	// Changed lives on the shared *pflag.Flag, so this works for persistent
	// flags merged into a subcommand too.
	f.fs.VisitAll(func(fl *pflag.Flag) {
		if !fl.Changed {
			return
		}
		v := &f.values
		switch fl.Name {
		case "server":
			cfg.ServerURL = v.ServerURL
		case "api-prefix":
			cfg.APIPrefix = v.APIPrefix
		case "db":
			cfg.DatabasePath = v.DatabasePath
		case "cache-version":
			cfg.CacheVersion = v.CacheVersion
		case "manifest":
			cfg.PrecacheManifest = v.PrecacheManifest
		case "domains":
			cfg.ReferenceDomains = v.ReferenceDomains
		case "interval":
			cfg.OnlineCheckInterval = v.OnlineCheckInterval
		case "probe-timeout":
			cfg.ProbeTimeout = v.ProbeTimeout
		case "log-level":
			cfg.LogLevel = v.LogLevel
		case "log-format":
			cfg.LogFormat = v.LogFormat
		case "metrics-addr":
			cfg.MetricsAddr = v.MetricsAddr
		case "listen":
			cfg.DevServerAddr = v.DevServerAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
