package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jpalmerr/schoolbus/internal/pagecache"
)

const (
	// shutdownTimeout is how long in-flight requests get once the server
	// context is cancelled.
	shutdownTimeout = 5 * time.Second

	// readHeaderTimeout bounds slow clients sending headers.
	readHeaderTimeout = 10 * time.Second

	assetsPrefix = "/assets/"
	healthPath   = "/healthz"
)

// Pages renders the HTML documents the server hands out.
type Pages interface {
	// Landing returns the landing page for the current year.
	Landing() (pagecache.Page, error)
	// Login returns the placeholder served at a local login path.
	Login() (pagecache.Page, error)
}

// Config holds everything a [Server] needs.
type Config struct {
	// Port is the TCP port to listen on. 0 lets the OS pick one.
	Port  int
	Pages Pages
	// Assets is served under /assets/ (may be nil).
	Assets fs.FS
	// LoginPath gets the placeholder page when it is a local path.
	LoginPath string
	// StaticMaxAge is sent as Cache-Control max-age for assets.
	StaticMaxAge time.Duration
	// TracerProvider defaults to a no-op provider.
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger
}

// Server handles HTTP requests for the landing site.
//
// Server provides these routes:
//   - GET /: the landing page
//   - GET <login path>: login placeholder, when the login path is local
//   - GET /assets/...: embedded stylesheet and images
//   - GET /healthz: liveness probe
type Server struct {
	cfg        Config
	tracer     trace.Tracer
	logger     *slog.Logger
	httpServer *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP [Server]. The server is not started until
// [Server.Start] is called.
func NewServer(cfg Config) *Server {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		tracer: tp.Tracer("github.com/jpalmerr/schoolbus/internal/server"),
		logger: logger,
	}
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleLanding)
	mux.HandleFunc(healthPath, s.handleHealth)
	if s.cfg.Assets != nil {
		mux.Handle(assetsPrefix, s.assetHandler())
	}
	if p, err := LoginRoute(s.cfg.LoginPath); err == nil && p != "" {
		mux.HandleFunc(p, s.handleLogin)
	} else if err != nil {
		s.logger.Warn("login path not routed", "error", err)
	}

	return requestID(s.traced(s.logged(mux)))
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. The server
// shuts down gracefully when ctx is cancelled.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	handler := s.Handler()

	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address after a successful [Server.Start].
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handleLanding serves the landing page at "/".
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowRead(w, r) {
		return
	}
	s.servePage(w, r, "landing", s.cfg.Pages.Landing)
}

// handleLogin serves the login placeholder.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	s.servePage(w, r, "login", s.cfg.Pages.Login)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, name string, render func() (pagecache.Page, error)) {
	page, err := render()
	if err != nil {
		s.logger.Error("failed to render page",
			"page", name,
			"request_id", RequestIDFrom(r.Context()),
			"error", err,
		)
		http.Error(w, "Page unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", page.ETag)
	// ServeContent answers If-None-Match with 304 and handles HEAD
	http.ServeContent(w, r, "", page.RenderedAt, bytes.NewReader(page.Body))
}

func (s *Server) assetHandler() http.Handler {
	files := http.StripPrefix(assetsPrefix, http.FileServer(http.FS(s.cfg.Assets)))
	maxAge := "public, max-age=" + strconv.Itoa(int(s.cfg.StaticMaxAge.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowRead(w, r) {
			return
		}
		// no directory listings
		name := strings.TrimPrefix(r.URL.Path, assetsPrefix)
		info, err := fs.Stat(s.cfg.Assets, name)
		if name == "" || err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", maxAge)
		files.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		s.logger.Error("failed to encode health response", "error", err)
	}
}

// allowRead rejects everything but GET and HEAD.
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// LoginRoute returns the ServeMux pattern for a login target served by
// this site. Targets on another host return "" and a nil error.
//
// The checks run on the decoded path, which is what ServeMux matches
// against. The pattern is the escaped path because ServeMux unescapes
// literal pattern segments.
func LoginRoute(target string) (string, error) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid login path %q: %w", target, err)
	}

	p := u.Path
	// braces are wildcards and whitespace separates the method
	if strings.ContainsFunc(p, func(r rune) bool {
		return r == '{' || r == '}' || unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return "", fmt.Errorf("login path %q must not contain braces, whitespace or control characters", target)
	}

	switch {
	case p == "/":
		return "", fmt.Errorf("login path %q collides with the landing page", target)
	case p == healthPath || strings.HasPrefix(p, assetsPrefix):
		return "", fmt.Errorf("login path %q collides with a built-in route", target)
	}

	clean := path.Clean(p)
	if strings.HasSuffix(p, "/") {
		clean += "/"
	}
	if clean != p {
		return "", fmt.Errorf("login path %q is not a clean path", target)
	}

	return u.EscapedPath(), nil
}
