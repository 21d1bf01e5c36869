// Package router provides path-prefix routing for the Bazar gateway.
//
// Routes map a path prefix to a backend service family. Matching is
// prefix-preserving: the router only picks the family, and the request
// path is forwarded to the chosen instance unchanged.
//
//	r := router.New()
//	_ = r.LoadRoutes([]router.Route{
//	    {Name: "catalog", Backend: "catalog", Prefix: "/books"},
//	    {Name: "order", Backend: "order", Prefix: "/purchase"},
//	})
//	match, err := r.Match(http.MethodGet, "/books/info/42")
//
// A prefix matches only at a segment boundary, so /books matches
// /books and /books/info/42 but not /booksellers. Unmatched paths
// return a *util.RouteNotFoundError.
package router
