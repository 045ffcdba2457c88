package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jpalmerr/schoolbus/internal/pagecache"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPages implements Pages with fixed bodies.
type mockPages struct {
	landing    string
	login      string
	err        error
	landingHit atomic.Int32
}

func (m *mockPages) Landing() (pagecache.Page, error) {
	m.landingHit.Add(1)
	if m.err != nil {
		return pagecache.Page{}, m.err
	}
	return page(m.landing), nil
}

func (m *mockPages) Login() (pagecache.Page, error) {
	if m.err != nil {
		return pagecache.Page{}, m.err
	}
	return page(m.login), nil
}

func page(body string) pagecache.Page {
	return pagecache.Page{
		Body:       []byte(body),
		ETag:       pagecache.ETag([]byte(body)),
		RenderedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"static/styles.css": {Data: []byte("body{}")},
		"images/hero.svg":   {Data: []byte("<svg></svg>")},
	}
}

func newTestServer(pages Pages) *Server {
	return NewServer(Config{
		Pages:        pages,
		Assets:       testAssets(),
		LoginPath:    "/login",
		StaticMaxAge: 24 * time.Hour,
		Logger:       testLogger(),
	})
}

func serve(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Landing ---

func TestLanding_Served(t *testing.T) {
	pages := &mockPages{landing: "<html>landing</html>"}
	h := newTestServer(pages).Handler()

	rec := serve(t, h, http.MethodGet, "/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := rec.Header().Get("ETag"); got != pagecache.ETag([]byte(pages.landing)) {
		t.Errorf("ETag = %q", got)
	}
	if rec.Body.String() != pages.landing {
		t.Errorf("body = %q, want %q", rec.Body.String(), pages.landing)
	}
}

func TestLanding_NotModified(t *testing.T) {
	pages := &mockPages{landing: "<html>landing</html>"}
	h := newTestServer(pages).Handler()

	etag := pagecache.ETag([]byte(pages.landing))
	rec := serve(t, h, http.MethodGet, "/", http.Header{"If-None-Match": {etag}})

	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("304 response has body %q", rec.Body.String())
	}
}

func TestLanding_StaleETag(t *testing.T) {
	pages := &mockPages{landing: "<html>landing</html>"}
	h := newTestServer(pages).Handler()

	rec := serve(t, h, http.MethodGet, "/", http.Header{"If-None-Match": {`"0000000000000000"`}})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLanding_Head(t *testing.T) {
	pages := &mockPages{landing: "<html>landing</html>"}
	h := newTestServer(pages).Handler()

	rec := serve(t, h, http.MethodHead, "/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response has body %q", rec.Body.String())
	}
}

func TestLanding_MethodNotAllowed(t *testing.T) {
	h := newTestServer(&mockPages{landing: "x"}).Handler()

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := serve(t, h, method, "/", nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
			if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
				t.Errorf("Allow = %q, want %q", got, "GET, HEAD")
			}
		})
	}
}

func TestLanding_UnknownPath(t *testing.T) {
	pages := &mockPages{landing: "x"}
	h := newTestServer(pages).Handler()

	rec := serve(t, h, http.MethodGet, "/pricing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if pages.landingHit.Load() != 0 {
		t.Error("landing rendered for unknown path")
	}
}

func TestLanding_RenderError(t *testing.T) {
	pages := &mockPages{err: errors.New("found 2 links to app store")}
	var logs bytes.Buffer
	srv := NewServer(Config{
		Pages:  pages,
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	rec := serve(t, srv.Handler(), http.MethodGet, "/", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "app store") {
		t.Error("render error leaked to the client")
	}
	if !strings.Contains(logs.String(), "failed to render page") {
		t.Errorf("render error not logged: %s", logs.String())
	}
}

// --- Login ---

func TestLogin_Served(t *testing.T) {
	pages := &mockPages{login: "<html>login</html>"}
	h := newTestServer(pages).Handler()

	rec := serve(t, h, http.MethodGet, "/login", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != pages.login {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLogin_ExternalTargetNotRouted(t *testing.T) {
	srv := NewServer(Config{
		Pages:     &mockPages{login: "login"},
		LoginPath: "https://auth.example.com/login",
		Logger:    testLogger(),
	})

	rec := serve(t, srv.Handler(), http.MethodGet, "/login", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLoginRoute(t *testing.T) {
	tests := []struct {
		target  string
		want    string
		wantErr string
	}{
		{"/login", "/login", ""},
		{"/login/", "/login/", ""},
		{"/auth/sign-in?next=/", "/auth/sign-in", ""},
		{"/caf%C3%A9", "/caf%C3%A9", ""},
		{"/a%2Fb", "/a%2Fb", ""},
		{"//auth.example.com/login", "", ""},
		{"https://auth.example.com/login", "", ""},
		{"", "", ""},
		{"/", "", "collides with the landing page"},
		{"/healthz", "", "collides with a built-in route"},
		{"/health%7A", "", "collides with a built-in route"},
		{"/assets/login", "", "collides with a built-in route"},
		{"/login/{id}", "", "must not contain braces"},
		{"/log%7Bin%7D", "", "must not contain braces"},
		{"/sign in", "", "must not contain braces"},
		{"/sign%20in", "", "must not contain braces"},
		{"/sign%09in", "", "must not contain braces"},
		{"/a/../login", "", "not a clean path"},
		{"/a//login", "", "not a clean path"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := LoginRoute(tt.target)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("LoginRoute(%q) = %q, want error containing %q", tt.target, got, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("LoginRoute(%q) error = %q, want containing %q", tt.target, err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoginRoute(%q) error = %v", tt.target, err)
			}
			if got != tt.want {
				t.Errorf("LoginRoute(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

// Every accepted login path must register on the mux and answer requests.
func TestLoginRoute_AcceptedPathsAreServed(t *testing.T) {
	tests := []struct {
		target string
		path   string
	}{
		{"/login", "/login"},
		{"/auth/sign-in?next=/", "/auth/sign-in"},
		{"/caf%C3%A9", "/caf%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			pages := &mockPages{login: "login"}
			srv := NewServer(Config{Pages: pages, LoginPath: tt.target, Logger: testLogger()})

			var h http.Handler
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Handler() panicked for %q: %v", tt.target, r)
					}
				}()
				h = srv.Handler()
			}()

			rec := serve(t, h, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK || rec.Body.String() != "login" {
				t.Errorf("GET %s = %d %q, want 200 login", tt.path, rec.Code, rec.Body.String())
			}
		})
	}
}

// Rejected paths are skipped by Handler instead of panicking.
func TestLoginRoute_RejectedPathNotRegistered(t *testing.T) {
	for _, target := range []string{"/sign%20in", "/log%7Bin%7D", "/health%7A"} {
		t.Run(target, func(t *testing.T) {
			srv := NewServer(Config{Pages: &mockPages{}, LoginPath: target, Logger: testLogger()})

			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Handler() panicked for %q: %v", target, r)
				}
			}()
			_ = srv.Handler()
		})
	}
}

// --- Assets ---

func TestAssets_Served(t *testing.T) {
	h := newTestServer(&mockPages{}).Handler()

	rec := serve(t, h, http.MethodGet, "/assets/static/styles.css", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "body{}" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", got)
	}
}

func TestAssets_NotFound(t *testing.T) {
	h := newTestServer(&mockPages{}).Handler()

	for _, target := range []string{
		"/assets/",
		"/assets/images/",
		"/assets/images",
		"/assets/images/missing.svg",
	} {
		t.Run(target, func(t *testing.T) {
			rec := serve(t, h, http.MethodGet, target, nil)
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
		})
	}
}

func TestAssets_MethodNotAllowed(t *testing.T) {
	h := newTestServer(&mockPages{}).Handler()

	rec := serve(t, h, http.MethodPost, "/assets/static/styles.css", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// --- Health ---

func TestHealth(t *testing.T) {
	h := newTestServer(&mockPages{}).Handler()

	rec := serve(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}

	rec = serve(t, h, http.MethodPost, "/healthz", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

// --- Middleware ---

func TestRequestID_Generated(t *testing.T) {
	h := newTestServer(&mockPages{landing: "x"}).Handler()

	a := serve(t, h, http.MethodGet, "/", nil).Header().Get(RequestIDHeader)
	b := serve(t, h, http.MethodGet, "/", nil).Header().Get(RequestIDHeader)

	if a == "" || b == "" {
		t.Fatal("request ID not set")
	}
	if a == b {
		t.Error("two requests got the same ID")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestServer(&mockPages{landing: "x"}).Handler()

	const id = "0f8fad5b-d9cb-469f-a165-70867728950e"
	rec := serve(t, h, http.MethodGet, "/", http.Header{RequestIDHeader: {id}})
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want %q", got, id)
	}
}

func TestRequestID_MalformedReplaced(t *testing.T) {
	h := newTestServer(&mockPages{landing: "x"}).Handler()

	rec := serve(t, h, http.MethodGet, "/", http.Header{RequestIDHeader: {"<script>"}})
	if got := rec.Header().Get(RequestIDHeader); got == "<script>" || got == "" {
		t.Errorf("request ID = %q, want a fresh UUID", got)
	}
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	srv := NewServer(Config{
		Pages:          &mockPages{landing: "x"},
		TracerProvider: tp,
		Logger:         testLogger(),
	})

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	_ = serve(t, srv.Handler(), http.MethodGet, "/", http.Header{"Traceparent": {parent}})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "HTTP GET" {
		t.Errorf("span name = %q, want %q", span.Name(), "HTTP GET")
	}
	if got := span.SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s, want the caller's", got)
	}

	var status int64
	for _, kv := range span.Attributes() {
		if kv.Key == "http.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	if status != http.StatusOK {
		t.Errorf("http.status_code = %d, want 200", status)
	}
}

func TestLogging_WarnsOnClientErrors(t *testing.T) {
	var logs bytes.Buffer
	srv := NewServer(Config{
		Pages:  &mockPages{landing: "x"},
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	_ = serve(t, srv.Handler(), http.MethodGet, "/missing", nil)

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, logs.String())
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["request_id"] == "" {
		t.Error("request_id missing from access log")
	}
}

// --- Server Start Tests ---

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	// port 0 = OS assigns available port. Valid for internal Server package,
	// though the public schoolbus API validates port > 0.
	srv := newTestServer(&mockPages{landing: "hello"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() on available port returned error: %v", err)
	}

	port := srv.Addr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello" {
		t.Errorf("body = %q, want hello", body)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	// occupy a port
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(Config{Port: port, Pages: &mockPages{}, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_ShutdownOnCancel(t *testing.T) {
	srv := newTestServer(&mockPages{landing: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := fmt.Sprintf("127.0.0.1:%d", srv.Addr().(*net.TCPAddr).Port)

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return
		}
		_ = conn.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server still accepting connections after context cancellation")
}
