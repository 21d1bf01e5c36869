// Package cache provides the in-process response cache for the Bazar
// gateway.
//
// The cache maps a request's exact path and query string to the
// normalized projection of a successful catalog read: a single
// book.Summary for /info/ lookups or an ordered list for /search/
// lookups. It is unbounded, never expires entries and does not survive
// a restart.
//
// Entries leave the cache only through Invalidate, which backends call
// (via POST /cache/invalidate) after changing a book. Invalidate removes
// the book's info entry and every search entry whose cached list names
// the book; search entries are matched by content, not by an index.
//
// # Example Usage
//
//	c := cache.NewMemoryCache(cache.WithLogger(logger))
//	if v, err := c.Lookup(ctx, "/books/info/42"); err == nil {
//	    // serve v
//	}
//	removed := c.Invalidate(ctx, "42")
//
// All operations are safe for concurrent use and emit OpenTelemetry
// spans and Prometheus metrics.
package cache
