package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sfero/sfero/internal/api"
	"github.com/sfero/sfero/internal/config"
	"github.com/sfero/sfero/internal/edge"
	"github.com/sfero/sfero/internal/profile"
)

// isolateConfig points the config file at an empty temp dir and blanks
// every env var the config layer reads.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range config.ShowAll(config.Config{}) {
		for _, name := range strings.Split(k.EnvVar, ", ") {
			t.Setenv(name, "")
		}
	}
}

func captureDiag(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := diag
	diag = &buf
	t.Cleanup(func() { diag = old })
	return &buf
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestProfilePagePathsAgree(t *testing.T) {
	if edge.ProfilePagePath != api.ProfilePagePath {
		t.Errorf("edge rewrites to %q but the front serves %q", edge.ProfilePagePath, api.ProfilePagePath)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestResolveCommand_Demo(t *testing.T) {
	isolateConfig(t)
	captureDiag(t)

	out, err := runRoot(t, "resolve", "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res profile.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if res.Source != profile.SourceDemo {
		t.Errorf("source = %q, want demo", res.Source)
	}
	if res.Profile == nil || res.Profile.DisplayName != "Demo Studio" {
		t.Errorf("profile = %+v", res.Profile)
	}
}

func TestResolveCommand_API(t *testing.T) {
	isolateConfig(t)
	captureDiag(t)

	var gotPath string
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Anna","services":[{"name":"Massage","durationMin":45,"price":150}]}`))
	}))
	defer upstreamSrv.Close()
	t.Setenv("SFERO_PROFILE_API_BASE", upstreamSrv.URL)

	out, err := runRoot(t, "resolve", "anna")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/profiles/anna" {
		t.Errorf("upstream path = %q, want /profiles/anna", gotPath)
	}

	var res profile.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if res.Source != profile.SourceAPI {
		t.Errorf("source = %q, want api", res.Source)
	}
	if len(res.Profile.Services) != 1 || res.Profile.Services[0].PriceMinor != 15000 {
		t.Errorf("services = %+v", res.Profile.Services)
	}
}

func TestResolveCommand_Unknown(t *testing.T) {
	isolateConfig(t)
	warn := captureDiag(t)

	out, err := runRoot(t, "resolve", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"source": "none"`) {
		t.Errorf("output = %q, want source none", out)
	}
	if !strings.Contains(warn.String(), "No profile") {
		t.Errorf("diag = %q, want a warning", warn.String())
	}
}

func TestResolveCommand_MissingArg(t *testing.T) {
	isolateConfig(t)

	if _, err := runRoot(t, "resolve"); err == nil {
		t.Fatal("expected error for missing slug")
	}
}

func TestConfigShow(t *testing.T) {
	isolateConfig(t)
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	out, err := runRoot(t, "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"edge.primary_origin = https://base44.onrender.com",
		"[SFERO_PROFILE_API_BASE, NEXT_PUBLIC_API_BASE]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSet(t *testing.T) {
	isolateConfig(t)
	captureDiag(t)

	if _, err := runRoot(t, "config", "set", "edge.proxy_marker", "edge-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Edge.ProxyMarker != "edge-2" {
		t.Errorf("ProxyMarker = %q, want edge-2", cfg.Edge.ProxyMarker)
	}

	if _, err := runRoot(t, "config", "set", "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigUnset(t *testing.T) {
	isolateConfig(t)
	captureDiag(t)

	if _, err := runRoot(t, "config", "set", "front.product_name", "Other"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := runRoot(t, "config", "unset", "front.product_name"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Front.ProductName != "Sfero" {
		t.Errorf("ProductName = %q, want default Sfero", cfg.Front.ProductName)
	}

	if _, err := runRoot(t, "config", "unset", "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestStatusTargets(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{Host: "0.0.0.0"},
		Edge:   config.EdgeConfig{Port: 8080},
		Front:  config.FrontConfig{Port: 8081},
	}

	got := statusTargets(cfg)
	if len(got) != 2 {
		t.Fatalf("got %d targets, want 2", len(got))
	}
	if got[0].URL != "http://127.0.0.1:8080/_edge_health" {
		t.Errorf("edge URL = %q", got[0].URL)
	}
	if got[1].URL != "http://127.0.0.1:8081/healthz" {
		t.Errorf("front URL = %q", got[1].URL)
	}
}

func TestHealthClientProbe(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ok.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()

	c := newHealthClient()
	ctx := context.Background()

	if r := c.probe(ctx, probeTarget{Name: "ok", URL: ok.URL}); !r.healthy() || r.Body != "ok" {
		t.Errorf("ok probe = %+v", r)
	}
	if r := c.probe(ctx, probeTarget{Name: "failing", URL: failing.URL}); r.healthy() || r.Status != http.StatusServiceUnavailable {
		t.Errorf("failing probe = %+v", r)
	}
	r := c.probe(ctx, probeTarget{Name: "gone", URL: gone.URL})
	if r.Err == nil || !strings.Contains(r.Err.Error(), "not reachable") {
		t.Errorf("gone probe err = %v, want not reachable", r.Err)
	}
}

// Edge and front built from config, with the edge pointed at the front.
func TestEdgeToFront(t *testing.T) {
	isolateConfig(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	frontHandler, err := buildFront(cfg)
	if err != nil {
		t.Fatalf("buildFront: %v", err)
	}
	front := httptest.NewServer(frontHandler)
	defer front.Close()

	cfg.Edge.ProfileFrontOrigin = front.URL
	edgeHandler, err := buildEdge(cfg)
	if err != nil {
		t.Fatalf("buildEdge: %v", err)
	}
	edgeSrv := httptest.NewServer(edgeHandler)
	defer edgeSrv.Close()

	resp, err := http.Get(edgeSrv.URL + "/public/demo?ref=ig")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Demo Studio") {
		t.Errorf("body missing demo profile:\n%s", body)
	}
	if !strings.Contains(string(body), `content="demo"`) {
		t.Error("body missing demo source tag")
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, "test", "127.0.0.1:0", http.NotFoundHandler())
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveHTTP = %v, want nil", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("serveHTTP did not return after cancel")
	}
}

func TestServeHTTP_ListenError(t *testing.T) {
	err := serveHTTP(context.Background(), "test", "127.0.0.1:99999", http.NotFoundHandler())
	if err == nil || !strings.Contains(err.Error(), "test server") {
		t.Errorf("err = %v, want a test server error", err)
	}
}
