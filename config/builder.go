package config

import (
	"github.com/jpalmerr/schoolbus"
)

// BuildOptions converts parsed configuration into SDK options.
//
// Logging and tracing are left to the caller, which owns their lifecycle.
func BuildOptions(cfg *Config) []schoolbus.Option {
	opts := []schoolbus.Option{
		schoolbus.WithPort(cfg.Port),
		schoolbus.WithLoginPath(cfg.LoginPath),
		schoolbus.WithAppStoreURL(cfg.AppStoreURL),
		schoolbus.WithStaticMaxAge(cfg.StaticMaxAge.Duration()),
		schoolbus.WithContent(cfg.LandingContent()),
	}
	if cfg.Title != "" {
		opts = append(opts, schoolbus.WithTitle(cfg.Title))
	}
	return opts
}
