// Package ember provides a high-performance static file server for Go with
// durable minification, content-encoding negotiation, and HTTP cache metadata.
//
// Ember serves files from a root directory and persists every derived artifact
// (minified CSS/JS, compressed variants, ETag values) as sidecar files next to
// the content they were derived from. After the first request for a resource,
// subsequent requests cost little more than a stat call:
//   - CSS and JavaScript are minified once into `.min.css` / `.min.js` siblings
//   - Compressed variants (`.gz`, `.zip`, `.zstd`, `.br`) are produced on demand
//     and selected by weighted Accept-Encoding negotiation
//   - Strong ETags are materialized into `.etag` sidecars under advisory locks
//   - Conditional requests (If-Modified-Since, If-None-Match) short-circuit
//     with 304 before any body is opened
//
// Sidecars carry their own freshness: a derived file older than its source is
// deleted and regenerated on the next request that consults it. Because the
// cache lives on disk, it survives restarts and is shared between workers
// without coordination beyond filesystem locks.
//
// Example Usage:
//
//	cfg := ember.DefaultConfig("./public")
//	handler, err := ember.NewHandler(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := ember.NewServer(handler, ember.DefaultServerConfig())
//	log.Fatal(srv.ListenAndServeGraceful())
package ember
