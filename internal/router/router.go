package router

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Route priority constants for calculating route matching order.
// Higher priority routes are matched first.
const (
	// priorityExactMatch is the base priority for exact path matches.
	priorityExactMatch = 1000

	// priorityPrefixMatch is the base priority for prefix path matches.
	// Longer prefixes receive additional priority based on their length.
	priorityPrefixMatch = 500
)

// Route maps a path pattern to the backend family that serves it.
type Route struct {
	// Name identifies the route in logs and metrics.
	Name string
	// Backend is the service family the route forwards to.
	Backend string
	// Prefix matches the path itself and everything below it.
	Prefix string
	// Exact matches one path only. Ignored when Prefix is set.
	Exact string
}

// CompiledRoute is a pre-compiled route for efficient matching.
type CompiledRoute struct {
	Name        string
	Backend     string
	PathMatcher PathMatcher
	Priority    int
}

// MatchResult contains the result of a route match.
type MatchResult struct {
	Route *CompiledRoute
}

// Router is the path-prefix routing table.
type Router struct {
	routes   []*CompiledRoute
	routeMap map[string]*CompiledRoute
	mu       sync.RWMutex
}

// New creates a new router.
func New() *Router {
	return &Router{
		routes:   make([]*CompiledRoute, 0),
		routeMap: make(map[string]*CompiledRoute),
	}
}

// AddRoute adds a route to the router.
func (r *Router) AddRoute(route Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routeMap[route.Name]; exists {
		return fmt.Errorf("duplicate route name: %s", route.Name)
	}

	compiled, err := compileRoute(route)
	if err != nil {
		return fmt.Errorf("failed to compile route %s: %w", route.Name, err)
	}

	r.routes = append(r.routes, compiled)
	r.routeMap[route.Name] = compiled

	sort.SliceStable(r.routes, func(i, j int) bool {
		return r.routes[i].Priority > r.routes[j].Priority
	})

	return nil
}

// LoadRoutes adds every route in order, stopping at the first error.
func (r *Router) LoadRoutes(routes []Route) error {
	for _, route := range routes {
		if err := r.AddRoute(route); err != nil {
			return err
		}
	}
	return nil
}

// Match finds the highest-priority route matching path. Methods are not
// considered; every method under a prefix reaches the same family.
func (r *Router) Match(method, path string) (*MatchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.PathMatcher.Match(path) {
			return &MatchResult{Route: route}, nil
		}
	}

	return nil, util.NewRouteNotFoundError(method, path)
}

// GetRoute returns a route by name.
func (r *Router) GetRoute(name string) (*CompiledRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routeMap[name]
	return route, ok
}

// GetRoutes returns all routes in matching order.
func (r *Router) GetRoutes() []*CompiledRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CompiledRoute, len(r.routes))
	copy(out, r.routes)
	return out
}

func compileRoute(route Route) (*CompiledRoute, error) {
	if route.Name == "" {
		return nil, fmt.Errorf("route name is required")
	}
	if route.Backend == "" {
		return nil, fmt.Errorf("route backend is required")
	}

	compiled := &CompiledRoute{
		Name:    route.Name,
		Backend: route.Backend,
	}

	switch {
	case route.Prefix != "":
		if route.Prefix[0] != '/' {
			return nil, fmt.Errorf("prefix must start with '/': %s", route.Prefix)
		}
		compiled.PathMatcher = NewPrefixMatcher(route.Prefix)
		compiled.Priority = priorityPrefixMatch + len(route.Prefix)
	case route.Exact != "":
		compiled.PathMatcher = NewExactMatcher(route.Exact)
		compiled.Priority = priorityExactMatch
	default:
		return nil, fmt.Errorf("route needs a prefix or an exact path")
	}

	return compiled, nil
}
