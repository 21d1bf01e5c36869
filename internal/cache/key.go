package cache

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/bazargw/internal/book"
)

// Path segments that make a catalog read cache-eligible.
const (
	InfoSegment   = "/info/"
	SearchSegment = "/search/"
)

// DefaultCatalogPrefix is the route prefix of the catalog family.
const DefaultCatalogPrefix = "/books"

// Classify reports whether a request is cache-eligible and, if so, which
// projection it caches. Only GET requests under catalogPrefix whose path
// contains an /info/ or /search/ segment qualify. A path containing both
// segments is treated as an info lookup.
func Classify(method, path, catalogPrefix string) Kind {
	if method != http.MethodGet {
		return KindNone
	}
	if !underPrefix(path, catalogPrefix) {
		return KindNone
	}
	switch {
	case strings.Contains(path, InfoSegment):
		return KindInfo
	case strings.Contains(path, SearchSegment):
		return KindSearch
	default:
		return KindNone
	}
}

// KeyFromRequest returns the cache key of a request: the exact path plus
// the raw query string, compared case-sensitively.
func KeyFromRequest(r *http.Request) string {
	return r.URL.RequestURI()
}

// InfoKeyMatches reports whether key denotes the info lookup of id, with
// or without a query string. The key's path is unescaped and its last
// segment compared in canonical form, so "/books/info/042" and
// "/books/info/a%20b" match the ids "42" and "a b".
func InfoKeyMatches(key, catalogPrefix, id string) bool {
	path, _, _ := strings.Cut(key, "?")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	segment, ok := strings.CutPrefix(path, catalogPrefix+InfoSegment)
	if !ok || segment == "" {
		return false
	}
	return segment == id || book.CanonicalID(segment) == id
}

func underPrefix(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
