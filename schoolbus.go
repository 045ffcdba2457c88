package schoolbus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jpalmerr/schoolbus/internal/audit"
	"github.com/jpalmerr/schoolbus/internal/pagecache"
	"github.com/jpalmerr/schoolbus/internal/server"
	"github.com/jpalmerr/schoolbus/internal/view"
	"github.com/jpalmerr/schoolbus/landing"
	"github.com/jpalmerr/schoolbus/site"
)

const (
	defaultPort         = 8080
	defaultStaticMaxAge = 24 * time.Hour
)

// Site is the School Bus Tracker landing site.
//
// Create a Site with [New] and run it with [Site.Start]. A Site is safe for
// concurrent use; pages are rendered once and cached until the footer year
// changes.
type Site struct {
	title          string
	content        landing.Content
	loginPath      string
	appStoreURL    string
	port           int
	staticMaxAge   time.Duration
	now            func() time.Time
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	assets         fs.FS
	cache          *pagecache.Cache
}

// New creates a [Site] with the given options.
//
// Default values:
//   - Content: [landing.DefaultContent]
//   - Login path: "/login"
//   - App store URL: [landing.DefaultAppStoreURL]
//   - Port: 8080
//   - Static max age: 24h
//
// Returns an error if any option is invalid, the content fails validation,
// or an image under /assets/ is not embedded in the binary.
func New(opts ...Option) (*Site, error) {
	cfg := &siteConfig{
		content:      landing.DefaultContent(),
		loginPath:    landing.DefaultLoginPath,
		appStoreURL:  landing.DefaultAppStoreURL,
		port:         defaultPort,
		staticMaxAge: defaultStaticMaxAge,
		now:          time.Now,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.content.Validate(); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}
	if _, err := server.LoginRoute(cfg.loginPath); err != nil {
		return nil, err
	}
	// the self-check counts every link to the store
	if cfg.loginPath == cfg.appStoreURL {
		return nil, fmt.Errorf("login path %q must differ from the app store url", cfg.loginPath)
	}

	assets := site.Static()
	for _, src := range cfg.content.Images() {
		if err := checkImage(assets, src); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	return &Site{
		title:          cfg.title,
		content:        cfg.content,
		loginPath:      cfg.loginPath,
		appStoreURL:    cfg.appStoreURL,
		port:           cfg.port,
		staticMaxAge:   cfg.staticMaxAge,
		now:            cfg.now,
		logger:         logger,
		tracerProvider: tp,
		assets:         assets,
		cache:          pagecache.New(cfg.now),
	}, nil
}

// Start serves the site until the provided context is cancelled.
//
// The caller controls the lifecycle via context cancellation. For signal
// handling, use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	site.Start(ctx)
//
// Start renders the landing page once before listening so a broken page
// fails fast. Returns nil on graceful shutdown.
func (s *Site) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	if _, err := s.landingPage(); err != nil {
		return fmt.Errorf("failed to render landing page: %w", err)
	}

	httpServer := server.NewServer(server.Config{
		Port:           s.port,
		Pages:          sitePages{s},
		Assets:         s.assets,
		LoginPath:      s.loginPath,
		StaticMaxAge:   s.staticMaxAge,
		TracerProvider: s.tracerProvider,
		Logger:         s.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("site available",
		"url", fmt.Sprintf("http://localhost:%d", s.port),
		"login_path", s.loginPath,
	)

	<-ctx.Done()
	s.logger.Info("site stopped")
	return nil
}

// Render writes the landing page for the current year to w.
//
// The page is checked before it is written: it must link to the login path
// and link to the app store exactly [landing.AppStorePlacements] times.
func (s *Site) Render(w io.Writer) error {
	page, err := s.landingPage()
	if err != nil {
		return err
	}
	_, err = w.Write(page.Body)
	return err
}

// Port returns the configured HTTP port.
func (s *Site) Port() int {
	return s.port
}

// LoginPath returns the sign-in link target.
func (s *Site) LoginPath() string {
	return s.loginPath
}

// AppStoreURL returns the download link target.
func (s *Site) AppStoreURL() string {
	return s.appStoreURL
}

// Content returns a copy of the landing page copy.
func (s *Site) Content() landing.Content {
	return s.content.Clone()
}

// landingPage returns the cached page for the current year. The year is
// part of the key so the footer rolls over without a restart.
func (s *Site) landingPage() (pagecache.Page, error) {
	year := s.now().Year()
	return s.cache.GetOrRender("landing:"+strconv.Itoa(year), func() ([]byte, error) {
		return s.renderLanding(year)
	})
}

func (s *Site) renderLanding(year int) ([]byte, error) {
	var buf bytes.Buffer
	err := view.Landing(view.Page{
		Title:       s.title,
		Content:     s.content,
		LoginPath:   s.loginPath,
		AppStoreURL: s.appStoreURL,
		Year:        year,
	}).Render(&buf)
	if err != nil {
		return nil, fmt.Errorf("render landing page: %w", err)
	}

	err = audit.Verify(bytes.NewReader(buf.Bytes()), audit.Expectations{
		LoginPath:     s.loginPath,
		AppStoreURL:   s.appStoreURL,
		AppStoreLinks: landing.AppStorePlacements,
		Year:          year,
	})
	if err != nil {
		return nil, fmt.Errorf("landing page self-check: %w", err)
	}

	s.logger.Debug("landing page rendered", "year", year, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *Site) loginPage() (pagecache.Page, error) {
	year := s.now().Year()
	return s.cache.GetOrRender("login:"+strconv.Itoa(year), func() ([]byte, error) {
		var buf bytes.Buffer
		err := view.Login(view.LoginPage{Brand: s.content.Brand, Year: year}).Render(&buf)
		if err != nil {
			return nil, fmt.Errorf("render login page: %w", err)
		}
		return buf.Bytes(), nil
	})
}

// sitePages adapts a Site to the server's page source.
type sitePages struct {
	s *Site
}

func (p sitePages) Landing() (pagecache.Page, error) { return p.s.landingPage() }
func (p sitePages) Login() (pagecache.Page, error)   { return p.s.loginPage() }

// checkImage accepts embedded assets and absolute http(s) URLs.
func checkImage(assets fs.FS, src string) error {
	if strings.HasPrefix(src, site.URLPrefix) {
		if !site.Has(assets, src) {
			return fmt.Errorf("image %q is not an embedded asset", src)
		}
		return nil
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image %q must be under %s or an absolute http(s) URL", src, site.URLPrefix)
	}
	return nil
}
