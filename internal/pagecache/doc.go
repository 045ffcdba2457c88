// Package pagecache stores rendered HTML pages in memory.
//
// This package is internal to schoolbus. The landing page only changes when
// the year printed in its footer changes, so the site renders it once per
// year and serves the cached bytes with an ETag.
//
// The main components are:
//
//   - [Cache]: concurrency-safe map of rendered pages, rendered once per key via singleflight
//   - [Page]: rendered body plus its ETag
//
// Users of the schoolbus library should not need to interact with this
// package directly.
package pagecache
