package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sfero/sfero/internal/config"
	"github.com/sfero/sfero/internal/edge"
)

// probeTarget is one health endpoint checked by `sfero status`.
type probeTarget struct {
	Name string
	URL  string
}

type probeResult struct {
	Target probeTarget
	Status int
	Body   string
	Err    error
}

func (r probeResult) healthy() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

type healthClient struct {
	httpClient *http.Client
}

func newHealthClient() *healthClient {
	return &healthClient{httpClient: &http.Client{Timeout: 2 * time.Second}}
}

// statusTargets derives the local health URLs from config. A wildcard
// listen host is probed on loopback.
func statusTargets(cfg config.Config) []probeTarget {
	host := cfg.Server.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return []probeTarget{
		{Name: "Edge", URL: "http://" + listenAddr(host, cfg.Edge.Port) + edge.HealthPath},
		{Name: "Front", URL: "http://" + listenAddr(host, cfg.Front.Port) + "/healthz"},
	}
}

func (c *healthClient) probe(ctx context.Context, t probeTarget) probeResult {
	res := probeResult{Target: t}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("not reachable: %w", err)
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		res.Err = fmt.Errorf("reading body: %w", err)
		return res
	}
	res.Status = resp.StatusCode
	res.Body = string(body)
	return res
}
