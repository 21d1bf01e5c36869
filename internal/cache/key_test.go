package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		want   Kind
	}{
		{name: "info", method: http.MethodGet, path: "/books/info/42", want: KindInfo},
		{name: "search", method: http.MethodGet, path: "/books/search/fantasy", want: KindSearch},
		{name: "info wins over search", method: http.MethodGet, path: "/books/search/info/42", want: KindInfo},
		{name: "post info", method: http.MethodPost, path: "/books/info/42", want: KindNone},
		{name: "put search", method: http.MethodPut, path: "/books/search/x", want: KindNone},
		{name: "head", method: http.MethodHead, path: "/books/info/42", want: KindNone},
		{name: "plain read", method: http.MethodGet, path: "/books/42", want: KindNone},
		{name: "no trailing segment slash", method: http.MethodGet, path: "/books/info", want: KindNone},
		{name: "order family", method: http.MethodGet, path: "/purchase/info/1", want: KindNone},
		{name: "prefix lookalike", method: http.MethodGet, path: "/booksellers/info/1", want: KindNone},
		{name: "uppercase segment", method: http.MethodGet, path: "/books/INFO/1", want: KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.method, tt.path, DefaultCatalogPrefix))
		})
	}
}

func TestKeyFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/books/search/fantasy?limit=10&page=2", nil)
	assert.Equal(t, "/books/search/fantasy?limit=10&page=2", KeyFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/books/info/42", nil)
	assert.Equal(t, "/books/info/42", KeyFromRequest(r))
}

func TestInfoKeyMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, InfoKeyMatches("/books/info/42", "/books", "42"))
	assert.True(t, InfoKeyMatches("/books/info/42?x=1", "/books", "42"))
	assert.False(t, InfoKeyMatches("/books/info/420", "/books", "42"))
	assert.False(t, InfoKeyMatches("/books/info/42/extra", "/books", "42"))
	assert.False(t, InfoKeyMatches("/books/search/42", "/books", "42"))
	assert.False(t, InfoKeyMatches("/books/info/", "/books", ""))

	assert.True(t, InfoKeyMatches("/books/info/042", "/books", "42"))
	assert.True(t, InfoKeyMatches("/books/info/a%20b", "/books", "a b"))
	assert.True(t, InfoKeyMatches("/books/info/a%2Fb?x=1", "/books", "a/b"))
	assert.True(t, InfoKeyMatches("/books/info/caf%C3%A9", "/books", "café"))
}

func TestInfoKeyMatches_EscapedRequestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		id     string
	}{
		{target: "/books/info/a%20b", id: "a b"},
		{target: "/books/info/caf%C3%A9?lang=fr", id: "café"},
		{target: "/books/info/x%2Cy", id: "x,y"},
		{target: "/books/info/x,y", id: "x,y"},
	}

	for _, tt := range tests {
		key := KeyFromRequest(httptest.NewRequest(http.MethodGet, tt.target, nil))
		assert.True(t, InfoKeyMatches(key, "/books", tt.id), key)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "info", KindInfo.String())
	assert.Equal(t, "search", KindSearch.String())
	assert.Equal(t, "none", KindNone.String())
}
