// Package config provides YAML configuration parsing for schoolbus.
//
// This package enables running the site as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	login_path: /login
//	app_store_url: https://apps.apple.com/app/school-bus-tracker/id6450000000
//	static_max_age: 24h
//
//	tracing:
//	  endpoint: ${OTEL_COLLECTOR:-}
//	  insecure: true
//
//	content:
//	  hero:
//	    headline: Know exactly where the school bus is
//	  features:
//	    - title: Live location
//	      body: Follow the bus on the map.
//
// Every content section is optional; omitted sections and empty fields fall
// back to the shipped copy.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/schoolbus/internal/telemetry"
	"github.com/jpalmerr/schoolbus/landing"
)

const (
	defaultPort         = 8080
	defaultStaticMaxAge = 24 * time.Hour
)

// Config is the root configuration structure for schoolbus.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the document title. Defaults to the content brand.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// LoginPath is where the sign-in links point: a local path such as
	// "/login" or an absolute URL. Defaults to "/login".
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	LoginPath string `yaml:"login_path"`

	// AppStoreURL is the store listing the download links point at.
	// Supports environment variable substitution.
	AppStoreURL string `yaml:"app_store_url"`

	// StaticMaxAge is the browser cache lifetime of assets. Defaults to 24h.
	StaticMaxAge *Duration `yaml:"static_max_age"`

	// Tracing configures OTLP span export. Disabled when endpoint is empty.
	Tracing TracingConfig `yaml:"tracing"`

	// Content overrides the landing page copy.
	Content ContentConfig `yaml:"content"`
}

// TracingConfig selects the OTLP/HTTP collector.
type TracingConfig struct {
	// Endpoint is the collector host:port. Supports environment variables.
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// ContentConfig mirrors [landing.Content]. Nil sections keep the defaults.
type ContentConfig struct {
	Brand        string          `yaml:"brand"`
	Hero         *HeroConfig     `yaml:"hero"`
	Features     []FeatureConfig `yaml:"features"`
	Gallery      []ImageConfig   `yaml:"gallery"`
	Download     *DownloadConfig `yaml:"download"`
	CallToAction *CTAConfig      `yaml:"call_to_action"`
	Footer       *FooterConfig   `yaml:"footer"`
}

// HeroConfig overrides the hero section.
type HeroConfig struct {
	Headline string      `yaml:"headline"`
	Tagline  string      `yaml:"tagline"`
	Image    ImageConfig `yaml:"image"`
}

// FeatureConfig is one feature card.
type FeatureConfig struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
	Icon  string `yaml:"icon"`
}

// ImageConfig references an image.
type ImageConfig struct {
	Src string `yaml:"src"`
	Alt string `yaml:"alt"`
}

// DownloadConfig overrides the app download section.
type DownloadConfig struct {
	Heading string      `yaml:"heading"`
	Body    string      `yaml:"body"`
	Badge   ImageConfig `yaml:"badge"`
}

// CTAConfig overrides the call to action.
type CTAConfig struct {
	Heading string `yaml:"heading"`
	Body    string `yaml:"body"`
	Label   string `yaml:"label"`
}

// FooterConfig overrides the footer.
type FooterConfig struct {
	Owner string `yaml:"owner"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""
		defaultVal := submatches[3]

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Title, LoginPath, AppStoreURL and
// Tracing.Endpoint. Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) expand() error {
	fields := []struct {
		key string
		val *string
	}{
		{"title", &c.Title},
		{"login_path", &c.LoginPath},
		{"app_store_url", &c.AppStoreURL},
		{"tracing.endpoint", &c.Tracing.Endpoint},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.val = expanded
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LoginPath == "" {
		c.LoginPath = landing.DefaultLoginPath
	}
	if c.AppStoreURL == "" {
		c.AppStoreURL = landing.DefaultAppStoreURL
	}
	if c.StaticMaxAge == nil {
		d := Duration(defaultStaticMaxAge)
		c.StaticMaxAge = &d
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = telemetry.DefaultServiceName
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if err := landing.ValidateLoginTarget(c.LoginPath); err != nil {
		return fmt.Errorf("login_path: %w", err)
	}
	if err := landing.ValidateAppStoreURL(c.AppStoreURL); err != nil {
		return fmt.Errorf("app_store_url: %w", err)
	}
	if c.StaticMaxAge.Duration() < 0 {
		return fmt.Errorf("static_max_age cannot be negative, got %s", c.StaticMaxAge.Duration())
	}
	if err := c.LandingContent().Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}

// LandingContent merges the configured content over [landing.DefaultContent].
func (c *Config) LandingContent() landing.Content {
	out := landing.DefaultContent()
	in := c.Content

	out.Brand = orDefault(in.Brand, out.Brand)

	if h := in.Hero; h != nil {
		out.Hero.Headline = orDefault(h.Headline, out.Hero.Headline)
		out.Hero.Tagline = orDefault(h.Tagline, out.Hero.Tagline)
		out.Hero.Image = h.Image.merge(out.Hero.Image)
	}

	if in.Features != nil {
		out.Features = make([]landing.Feature, len(in.Features))
		for i, f := range in.Features {
			out.Features[i] = landing.Feature{Title: f.Title, Body: f.Body, Icon: f.Icon}
		}
	}

	if in.Gallery != nil {
		out.Gallery = make([]landing.Image, len(in.Gallery))
		for i, img := range in.Gallery {
			out.Gallery[i] = landing.Image{Src: img.Src, Alt: img.Alt}
		}
	}

	if d := in.Download; d != nil {
		out.Download.Heading = orDefault(d.Heading, out.Download.Heading)
		out.Download.Body = orDefault(d.Body, out.Download.Body)
		out.Download.Badge = d.Badge.merge(out.Download.Badge)
	}

	if cta := in.CallToAction; cta != nil {
		out.CallToAction.Heading = orDefault(cta.Heading, out.CallToAction.Heading)
		out.CallToAction.Body = orDefault(cta.Body, out.CallToAction.Body)
		out.CallToAction.Label = orDefault(cta.Label, out.CallToAction.Label)
	}

	if f := in.Footer; f != nil {
		out.Footer.Owner = orDefault(f.Owner, out.Footer.Owner)
	}

	return out
}

// Telemetry converts the tracing section for [telemetry.Setup].
func (t TracingConfig) Telemetry() telemetry.Config {
	return telemetry.Config{
		Endpoint:    t.Endpoint,
		ServiceName: t.ServiceName,
		Insecure:    t.Insecure,
	}
}

func (img ImageConfig) merge(def landing.Image) landing.Image {
	return landing.Image{
		Src: orDefault(img.Src, def.Src),
		Alt: orDefault(img.Alt, def.Alt),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
