// Package config loads runtime configuration for the WeCare device core.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with --config. The extension picks the
//     format: .json or .toml.
//  3. Command-line flags explicitly set by the user.
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "3s" (both
// formats) or integer nanoseconds (JSON only):
//
//	server_url            = "http://127.0.0.1:8000"
//	api_prefix            = "/api/"
//	database_path         = "/home/me/.config/wecare/wecare.db"
//	cache_version         = "wecare-v2"
//	precache_manifest     = ["/", "/static/app.js"]
//	reference_domains     = ["doctors", "hospitals", "ngos"]
//	online_check_interval = "3s"
//	probe_timeout         = "3s"
//	log_level             = "info"
//	log_format            = "text"
//	metrics_addr          = ""
//	devserver_addr        = "127.0.0.1:8000"
//
// Keys missing from the file keep their previous value.
package config
