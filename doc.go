// Package schoolbus serves the School Bus Tracker landing page.
//
// The landing page is the first screen an unauthenticated visitor sees: a
// hero, feature cards, an image gallery, app download links, a call to
// action and a footer. It holds no state. Its only behaviour is navigation:
// two links to the login route and three links to the app store listing.
//
// schoolbus is SDK-first: the page is rendered in Go, its stylesheet and
// images are embedded, and the whole site runs from a single binary.
//
// # Quick Start
//
//	site, _ := schoolbus.New()
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	site.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// schoolbus uses the functional options pattern for configuration:
//
//	site, err := schoolbus.New(
//	    schoolbus.WithPort(9090),
//	    schoolbus.WithAppStoreURL("https://apps.apple.com/app/id123"),
//	    schoolbus.WithLoginPath("https://auth.example.com/login"),
//	    schoolbus.WithContent(content),
//	)
//
// # Static Export
//
// [Site.Render] writes the landing page to any [io.Writer], so the page can
// be published to a CDN without running the server:
//
//	f, _ := os.Create("index.html")
//	defer f.Close()
//	site.Render(f)
//
// # Self-check
//
// Every freshly rendered page is parsed and checked before it is served:
// it must link to the login path, link to the app store exactly three times
// and show the current year in its footer. A page that fails the check is
// never served.
//
// # HTTP Routes
//
//   - GET /: landing page
//   - GET /login: login placeholder (when the login path is local)
//   - GET /assets/...: embedded stylesheet and images
//   - GET /healthz: liveness probe
//
// # CLI
//
// The cmd/schoolbus binary runs the site from a YAML file:
//
//	schoolbus serve -c schoolbus.yaml
//	schoolbus validate -c schoolbus.yaml
//	schoolbus render -o index.html
package schoolbus
