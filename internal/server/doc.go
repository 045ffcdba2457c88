// Package server provides the HTTP server for the School Bus Tracker site.
//
// This package is internal to schoolbus and handles all HTTP concerns:
//
//   - Landing page: rendered HTML at "/" with ETag revalidation
//   - Login placeholder: served at the login path when it is local
//   - Static assets: embedded stylesheet and images under "/assets/"
//   - Health: JSON liveness probe at "/healthz"
//
// Every request gets an X-Request-ID, a server span and an access log line.
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the schoolbus library should not need to interact with this
// package directly. The server is started by [schoolbus.Site.Start].
package server
