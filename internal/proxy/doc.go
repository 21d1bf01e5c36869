// Package proxy forwards gateway requests to a selected backend host.
//
// The Forwarder offers three modes:
//
//   - Forward streams the request and the upstream response through
//     httputil.ReverseProxy, relaying status, headers and body verbatim.
//   - ForwardWrite buffers the request body first so the backend always
//     receives an explicit Content-Length.
//   - Fetch issues a bodiless GET and buffers the whole upstream response,
//     for reads whose body must be inspected before it is relayed.
//
// Forwarding is prefix-preserving: the inbound path is appended to the
// backend base URL unchanged. Hop-by-hop headers are removed, the Host
// header is rewritten to the backend and X-Forwarded-For/-Host/-Proto
// are set.
//
// A transport failure is reported as a *util.BackendError wrapping a
// *ProxyError; the caller maps it to 503. Nothing is retried.
package proxy
