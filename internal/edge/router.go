// Package edge implements the request router that sits in front of the two
// origins: the primary backend and the profile front.
package edge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	HealthPath      = "/_edge_health"
	PublicPrefix    = "/public/"
	ProfilePagePath = "/PublicProfileSlug"

	MarkerHeader    = "X-Sfero-Proxy"
	RequestIDHeader = "X-Request-Id"

	noStore = "no-store"
)

// publicHeaders are the only client headers forwarded to the profile front.
var publicHeaders = []string{"Accept", "Accept-Language", "User-Agent", RequestIDHeader}

// Config describes the fixed origins the router dispatches to.
type Config struct {
	PrimaryOrigin      *url.URL
	ProfileFrontOrigin *url.URL
	ProxyMarker        string

	// Transport is shared by both proxies. Nil selects NewTransport(DefaultTransportConfig()).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Router classifies each request as health, public profile or pass-through.
// It holds no per-request state; concurrent use is safe.
type Router struct {
	mux     chi.Router
	public  *httputil.ReverseProxy
	forward *httputil.ReverseProxy
	front   *url.URL
	marker  string
	logger  *slog.Logger
}

// NewRouter validates cfg and builds the router.
func NewRouter(cfg Config) (*Router, error) {
	if cfg.PrimaryOrigin == nil || cfg.PrimaryOrigin.Host == "" {
		return nil, errors.New("edge: primary origin is required")
	}
	if cfg.ProfileFrontOrigin == nil || cfg.ProfileFrontOrigin.Host == "" {
		return nil, errors.New("edge: profile front origin is required")
	}
	if cfg.ProxyMarker == "" {
		return nil, errors.New("edge: proxy marker is required")
	}
	if cfg.Transport == nil {
		cfg.Transport = NewTransport(DefaultTransportConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rt := &Router{
		front:  cfg.ProfileFrontOrigin,
		marker: cfg.ProxyMarker,
		logger: cfg.Logger,
	}

	primary := cfg.PrimaryOrigin
	rt.forward = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(primary)
			pr.SetXForwarded()
			pr.Out.Header.Set(MarkerHeader, rt.marker)
		},
		Transport:     cfg.Transport,
		FlushInterval: -1,
		ErrorHandler:  rt.gatewayError("primary", false),
	}

	rt.public = &httputil.ReverseProxy{
		Rewrite:        rt.rewritePublic,
		Transport:      cfg.Transport,
		ModifyResponse: disableCaching,
		ErrorHandler:   rt.gatewayError("profile_front", true),
	}

	r := chi.NewRouter()
	r.Use(requestID, accessLog(cfg.Logger))
	r.Get(HealthPath, handleHealth)
	r.Handle(PublicPrefix+"*", http.HandlerFunc(rt.handlePublic))
	r.NotFound(rt.forward.ServeHTTP)
	r.MethodNotAllowed(rt.forward.ServeHTTP)
	rt.mux = r

	return rt, nil
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", noStore)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handlePublic(w http.ResponseWriter, r *http.Request) {
	if publicSlug(r) == "" {
		w.Header().Set("Cache-Control", noStore)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Cache-Control", noStore)
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rt.public.ServeHTTP(w, r)
}

// publicSlug returns everything after /public/ in the decoded path.
func publicSlug(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, PublicPrefix)
}

// rewritePublic points the outbound request at the profile page endpoint,
// passing the slug plus the client's own query parameters.
func (rt *Router) rewritePublic(pr *httputil.ProxyRequest) {
	target := *rt.front
	target.Path = strings.TrimRight(rt.front.Path, "/") + ProfilePagePath
	target.RawPath = ""
	target.RawQuery = url.Values{"slug": {publicSlug(pr.In)}}.Encode()
	if q := pr.In.URL.RawQuery; q != "" {
		target.RawQuery += "&" + q
	}

	pr.Out.URL = &target
	pr.Out.Host = ""

	in := pr.Out.Header
	pr.Out.Header = make(http.Header, len(publicHeaders)+4)
	for _, h := range publicHeaders {
		if v := in.Values(h); len(v) > 0 {
			pr.Out.Header[http.CanonicalHeaderKey(h)] = v
		}
	}
	pr.SetXForwarded()
	pr.Out.Header.Set(MarkerHeader, rt.marker)
}

// disableCaching forces the profile response to be uncacheable; profile data
// can change between requests.
func disableCaching(resp *http.Response) error {
	resp.Header.Set("Cache-Control", noStore)
	return nil
}

// gatewayError maps origin failures to 504 on timeout and 502 otherwise.
// There is no fallback to the other origin. Profile errors are never cacheable.
func (rt *Router) gatewayError(origin string, noCache bool) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if noCache {
			w.Header().Set("Cache-Control", noStore)
		}
		if r.Context().Err() != nil {
			rt.logger.Debug("client went away before origin answered",
				"origin", origin,
				"path", r.URL.Path,
				"error", err,
			)
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		status := http.StatusBadGateway
		if isTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		rt.logger.Warn("origin request failed",
			"origin", origin,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		http.Error(w, fmt.Sprintf("%d %s", status, http.StatusText(status)), status)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
