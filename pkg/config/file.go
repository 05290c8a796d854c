// Package config loads declarative dispatch tables from YAML or TOML files.
//
// A file names the middleware of each entry. Names are resolved against a Registry that
// holds the built-in middleware configured by the file plus any application middleware.
package config

import (
	"github.com/Suhaibinator/SDispatch/pkg/middleware"
)

// File is the on-disk configuration.
type File struct {
	Logging    LoggingConfig                `yaml:"logging" toml:"logging"`
	Locale     bool                         `yaml:"locale" toml:"locale"`
	Default    string                       `yaml:"default" toml:"default"` // Registry name of the default-return middleware
	IP         *middleware.IPConfig         `yaml:"ip" toml:"ip"`
	CORS       *middleware.CORSConfig       `yaml:"cors" toml:"cors"`
	Locales    *LocaleConfig                `yaml:"locales" toml:"locales"`
	JWT        *JWTConfig                   `yaml:"jwt" toml:"jwt"`
	RateLimits []middleware.RateLimitConfig `yaml:"rate_limits" toml:"rate_limits" validate:"dive"`
	Redirects  []RedirectConfig             `yaml:"redirects" toml:"redirects" validate:"dive"`
	Entries    []EntryConfig                `yaml:"entries" toml:"entries" validate:"dive"`
}

// LoggingConfig selects the logger built by NewLogger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"omitempty,oneof=json console"`
}

// LocaleConfig configures the "locale" built-in.
type LocaleConfig struct {
	Fallback  string   `yaml:"fallback" toml:"fallback"`
	Supported []string `yaml:"supported" toml:"supported"`
}

// JWTConfig configures the "jwt" built-in.
type JWTConfig struct {
	Secret   string `yaml:"secret" toml:"secret" validate:"required,min=16"`
	Issuer   string `yaml:"issuer" toml:"issuer"`
	Audience string `yaml:"audience" toml:"audience"`
}

// RedirectConfig declares a named redirect middleware.
type RedirectConfig struct {
	Name     string `yaml:"name" toml:"name" validate:"required"`
	Status   int    `yaml:"status" toml:"status" validate:"omitempty,gte=300,lte=399"`
	Location string `yaml:"location" toml:"location" validate:"required"`
}

// EntryConfig is one dispatch table entry. Middlewares are listed in chain order, so the
// last one listed runs first.
type EntryConfig struct {
	Pattern     string   `yaml:"pattern" toml:"pattern" validate:"required"`
	Middlewares []string `yaml:"middlewares" toml:"middlewares" validate:"dive,required"`
}
