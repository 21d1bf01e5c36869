package proxy

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/bazargw/internal/backend"
	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// proxyTracerName is the OpenTelemetry tracer name for outbound calls.
const proxyTracerName = "bazargw/proxy"

// Forwarding modes, used as span names and metric labels.
const (
	ModeStream = "stream"
	ModeFetch  = "fetch"
	ModeWrite  = "write"
)

// hopHeaders are headers that should not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder sends inbound requests to a selected backend host. It never
// retries and never fails over to another host.
type Forwarder struct {
	transport http.RoundTripper
	client    *http.Client
	logger    observability.Logger
	metrics   *Metrics
	timeout   time.Duration
}

// Option is a functional option for configuring the Forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger for the forwarder.
func WithLogger(logger observability.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithTransport sets the transport used for outbound requests.
func WithTransport(transport http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.transport = transport
	}
}

// WithMetrics sets the Prometheus metrics for the forwarder.
func WithMetrics(m *Metrics) Option {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// WithTimeout bounds each outbound call. Zero means no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		f.timeout = timeout
	}
}

// New creates a new Forwarder.
func New(opts ...Option) *Forwarder {
	f := &Forwarder{
		transport: http.DefaultTransport,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{
		Transport: f.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

// Response is a fully buffered upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Relay writes the response unmodified to w.
func (r *Response) Relay(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vv := range r.Header {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
	dst.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.StatusCode)
	_, err := w.Write(r.Body)
	return err
}

// Forward streams r to host and relays the upstream status, headers and
// body back to w as they arrive. A transport failure is returned as a
// *util.BackendError before anything has been written to w.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, family string, host *backend.Host) error {
	return f.forward(w, r, family, host, ModeStream)
}

// ForwardWrite buffers the request body and forwards it like Forward with
// an explicit Content-Length. A write without a Content-Type, including
// one with an empty body, is sent as application/json.
func (f *Forwarder) ForwardWrite(w http.ResponseWriter, r *http.Request, family string, host *backend.Host) error {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			f.metrics.recordError(family, errorTypeReadBody)
			return NewProxyError(ModeWrite, family, "", "failed to read request body", err)
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}

	return f.forward(w, r, family, host, ModeWrite)
}

func (f *Forwarder) forward(
	w http.ResponseWriter,
	r *http.Request,
	family string,
	host *backend.Host,
	mode string,
) error {
	if host == nil {
		return NewProxyError(mode, family, "", "no backend selected", ErrNoHost)
	}
	target := host.Target()

	ctx, cancel := f.withTimeout(r.Context())
	defer cancel()
	ctx, span := f.startSpan(ctx, mode, family, r.Method, target)
	defer span.End()

	var proxyErr error
	start := time.Now()
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rewriteOutbound(pr.Out, pr.In, target)
			observability.InjectTraceContext(pr.Out.Context(), pr.Out)
		},
		Transport:     f.transport,
		FlushInterval: -1, // flush streamed bodies after every write
		ModifyResponse: func(resp *http.Response) error {
			f.metrics.recordResponse(family, mode, resp.StatusCode, time.Since(start))
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			return nil
		},
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			proxyErr = err
		},
	}

	host.IncrementConnections()
	defer host.DecrementConnections()

	rp.ServeHTTP(w, r.WithContext(ctx))
	if proxyErr != nil {
		return f.fail(span, mode, family, host, proxyErr)
	}
	return nil
}

// Fetch performs a bodiless GET for r's path and query against host and
// buffers the whole upstream response. The caller decides what to relay.
func (f *Forwarder) Fetch(ctx context.Context, r *http.Request, family string, host *backend.Host) (*Response, error) {
	if host == nil {
		return nil, NewProxyError(ModeFetch, family, "", "no backend selected", ErrNoHost)
	}
	target := host.Target()

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	ctx, span := f.startSpan(ctx, ModeFetch, family, http.MethodGet, target)
	defer span.End()

	out := r.Clone(ctx)
	out.Method = http.MethodGet
	out.Body = http.NoBody
	out.ContentLength = 0
	out.RequestURI = ""
	out.Header.Del("Content-Length")
	// Let the transport negotiate compression so the buffered body is decoded.
	out.Header.Del("Accept-Encoding")
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	rewriteOutbound(out, r, target)
	observability.InjectTraceContext(ctx, out)

	host.IncrementConnections()
	defer host.DecrementConnections()

	start := time.Now()
	resp, err := f.client.Do(out)
	if err != nil {
		return nil, f.fail(span, ModeFetch, family, host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fail(span, ModeFetch, family, host, err)
	}

	f.metrics.recordResponse(family, ModeFetch, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func (f *Forwarder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeoutCause(ctx, f.timeout, ErrUpstreamTimeout)
	}
	return context.WithCancel(ctx)
}

func (f *Forwarder) startSpan(
	ctx context.Context,
	mode, family, method string,
	target *url.URL,
) (context.Context, trace.Span) {
	return otel.Tracer(proxyTracerName).Start(ctx, "proxy."+mode,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gateway.family", family),
			attribute.String("http.request.method", method),
			attribute.String("server.address", target.Host),
		),
	)
}

// fail records a transport failure and wraps it for the caller.
func (f *Forwarder) fail(span trace.Span, mode, family string, host *backend.Host, err error) error {
	errType := classifyError(err)
	f.metrics.recordError(family, errType)
	span.RecordError(err)
	span.SetStatus(codes.Error, errType)

	f.logger.Warn("backend request failed",
		observability.String("family", family),
		observability.String("backend", host.URL()),
		observability.String("mode", mode),
		observability.String("error_type", errType),
		observability.Error(err),
	)

	cause := NewProxyError(mode, family, host.URL(), "request failed", err)
	return util.NewBackendErrorWithCause(family, host.URL(), "service unavailable", cause)
}

// rewriteOutbound points out at target, keeping in's path and query
// below the target's base path. The Host header is rewritten to the
// backend and X-Forwarded headers describe the original request.
func rewriteOutbound(out, in *http.Request, target *url.URL) {
	out.URL.Scheme = target.Scheme
	out.URL.Host = target.Host
	out.URL.Path = singleJoiningSlash(target.Path, in.URL.Path)
	out.URL.RawPath = ""
	out.URL.RawQuery = in.URL.RawQuery
	out.Host = target.Host

	for _, h := range hopHeaders {
		out.Header.Del(h)
	}

	if clientIP, _, err := net.SplitHostPort(in.RemoteAddr); err == nil {
		if prior := in.Header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		out.Header.Set("X-Forwarded-For", clientIP)
	}
	if in.TLS != nil {
		out.Header.Set("X-Forwarded-Proto", "https")
	} else {
		out.Header.Set("X-Forwarded-Proto", "http")
	}
	out.Header.Set("X-Forwarded-Host", in.Host)
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
