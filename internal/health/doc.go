// Package health provides the liveness and readiness endpoints served on
// the gateway's admin port.
//
// /healthz and /livez always answer 200 while the process runs. /ready,
// /readyz and /health run the registered checks and answer 503 if any
// fails; each backend family is registered as a PoolCheck reporting its
// instance count.
package health
