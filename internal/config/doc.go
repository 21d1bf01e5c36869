// Package config provides configuration types and loading for the
// Bazar gateway.
//
// Configuration is read once at startup from an optional YAML file and
// the process environment. The environment overlays the file, and
// built-in defaults fill whatever neither source set.
//
// # Configuration Loading
//
//	cfg, err := config.Load("gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment
//
// Backend pools are configured with comma-separated URL lists:
//
//	CATALOG_SERVICE_URLS=http://catalog-1:8080,http://catalog-2:8080
//	ORDER_SERVICE_URLS=http://order-1:8080,http://order-2:8080
//
// The singular CATALOG_SERVICE_URL and ORDER_SERVICE_URL are accepted
// when the plural forms are unset. Every entry is trimmed and each list
// must contain at least one absolute http or https URL.
//
// YAML files may reference the environment with ${VAR} and
// ${VAR:-default}.
package config
