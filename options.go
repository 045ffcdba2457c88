package schoolbus

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jpalmerr/schoolbus/landing"
)

// siteConfig holds mutable state during Site construction.
type siteConfig struct {
	title          string
	content        landing.Content
	loginPath      string
	appStoreURL    string
	port           int
	staticMaxAge   time.Duration
	now            func() time.Time
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

// Option is a function that configures a [Site] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*siteConfig) error

// WithContent replaces the landing page copy.
//
// The content is validated by [New]. Defaults to [landing.DefaultContent].
//
// Example:
//
//	c := landing.DefaultContent()
//	c.Hero.Headline = "Never miss the bus again"
//	site, err := schoolbus.New(schoolbus.WithContent(c))
func WithContent(c landing.Content) Option {
	return func(cfg *siteConfig) error {
		cfg.content = c.Clone()
		return nil
	}
}

// WithLoginPath sets where the sign-in links point.
//
// A path such as "/login" is served by the site with a placeholder page; an
// absolute URL sends visitors to an external sign-in service instead.
// Defaults to [landing.DefaultLoginPath].
func WithLoginPath(target string) Option {
	return func(cfg *siteConfig) error {
		if err := landing.ValidateLoginTarget(target); err != nil {
			return err
		}
		cfg.loginPath = target
		return nil
	}
}

// WithAppStoreURL sets the store listing the download links point at.
//
// Defaults to [landing.DefaultAppStoreURL]. Returns an error unless the URL
// is an absolute http(s) URL.
func WithAppStoreURL(rawURL string) Option {
	return func(cfg *siteConfig) error {
		if err := landing.ValidateAppStoreURL(rawURL); err != nil {
			return err
		}
		cfg.appStoreURL = rawURL
		return nil
	}
}

// WithPort sets the HTTP port for the site.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *siteConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the document title shown in the browser tab.
//
// If not specified, the content brand is used.
func WithTitle(title string) Option {
	return func(cfg *siteConfig) error {
		cfg.title = title
		return nil
	}
}

// WithStaticMaxAge sets how long browsers may cache the stylesheet and
// images. Defaults to 24 hours; zero disables caching.
//
// Returns an error if the duration is negative.
func WithStaticMaxAge(d time.Duration) Option {
	return func(cfg *siteConfig) error {
		if d < 0 {
			return errors.New("static max age cannot be negative")
		}
		cfg.staticMaxAge = d
		return nil
	}
}

// WithClock sets the time source used for the footer year.
//
// Useful in tests. Returns an error if now is nil.
func WithClock(now func() time.Time) Option {
	return func(cfg *siteConfig) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.now = now
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Site.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	site, err := schoolbus.New(schoolbus.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *siteConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for request spans.
//
// If not specified, tracing is disabled. Returns an error if tp is nil.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *siteConfig) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		cfg.tracerProvider = tp
		return nil
	}
}
