// Package backend provides backend pool management for the Bazar
// gateway.
//
// Each service family (catalog, order) is a Pool of interchangeable
// instances fixed at startup. Pool.Select hands out instances in strict
// round-robin order using a per-pool cursor; the catalog and order
// cursors never influence each other.
//
// # Usage
//
//	registry := backend.NewRegistry(logger, backend.NewMetrics(reg))
//	if err := registry.LoadFromConfig(cfg.Backends); err != nil {
//	    return err
//	}
//	catalog, _ := registry.Get("catalog")
//	host := catalog.Select()
//
// # Connection Pooling
//
// ConnectionPool owns the shared http.Transport used for every outbound
// call. It follows redirects never, so 3xx responses reach the caller
// unchanged.
package backend
