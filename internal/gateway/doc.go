// Package gateway implements the Bazar gateway front end.
//
// A Gateway owns the routing table, the catalog and order backend pools
// and the response cache. Requests under /books go to the catalog family
// and requests under /purchase go to the order family; each request picks
// the next instance of its family in round-robin order and is attempted
// exactly once. GET requests under /books whose path contains /info/ or
// /search/ are served from the cache when possible; on a miss the
// upstream response is relayed unchanged and a 200 response is cached in
// its normalized form. Catalog writes are buffered and forwarded as JSON.
// All other traffic is streamed.
//
// The package also serves the service description on GET / and explicit
// invalidation on POST /cache/invalidate, and provides the HTTP Server
// wrapper used by the gateway and admin listeners.
package gateway
