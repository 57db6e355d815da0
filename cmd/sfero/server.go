package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sfero/sfero/internal/api"
	"github.com/sfero/sfero/internal/config"
	"github.com/sfero/sfero/internal/edge"
	"github.com/sfero/sfero/internal/profile"
	"github.com/sfero/sfero/internal/upstream"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Run the edge router (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		h, err := buildEdge(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serveHTTP(ctx, "edge", listenAddr(cfg.Server.Host, cfg.Edge.Port), h)
	},
}

var frontCmd = &cobra.Command{
	Use:   "front",
	Short: "Run the public profile front (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		h, err := buildFront(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serveHTTP(ctx, "front", listenAddr(cfg.Server.Host, cfg.Front.Port), h)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the edge router and the profile front in one process",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		edgeHandler, err := buildEdge(cfg)
		if err != nil {
			return err
		}
		frontHandler, err := buildFront(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Either server failing stops the other.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return serveHTTP(gctx, "front", listenAddr(cfg.Server.Host, cfg.Front.Port), frontHandler)
		})
		g.Go(func() error {
			return serveHTTP(gctx, "edge", listenAddr(cfg.Server.Host, cfg.Edge.Port), edgeHandler)
		})
		return g.Wait()
	},
}

// loadRuntime loads config and installs the process-wide logger.
func loadRuntime() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(newLogger(cfg.Log.Level))
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func listenAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func buildEdge(cfg config.Config) (http.Handler, error) {
	primary, err := url.Parse(cfg.Edge.PrimaryOrigin)
	if err != nil {
		return nil, fmt.Errorf("parsing primary origin: %w", err)
	}
	front, err := url.Parse(cfg.Edge.ProfileFrontOrigin)
	if err != nil {
		return nil, fmt.Errorf("parsing profile front origin: %w", err)
	}

	tc := edge.DefaultTransportConfig()
	tc.ResponseHeader = cfg.OriginTimeout(tc.ResponseHeader)

	return edge.NewRouter(edge.Config{
		PrimaryOrigin:      primary,
		ProfileFrontOrigin: front,
		ProxyMarker:        cfg.Edge.ProxyMarker,
		Transport:          edge.NewTransport(tc),
		Logger:             slog.Default(),
	})
}

// buildResolver wires the upstream client (when an API base is configured)
// and the demo registry into a resolver.
func buildResolver(cfg config.Config) (*profile.Resolver, *profile.Registry, error) {
	registry, err := profile.LoadRegistry(cfg.Front.DemoRegistry)
	if err != nil {
		return nil, nil, fmt.Errorf("loading demo registry: %w", err)
	}

	// Left as a nil interface when unset so the resolver skips the API attempt.
	var fetcher profile.Fetcher
	if cfg.Front.APIBase != "" {
		fetcher = upstream.NewClient(cfg.Front.APIBase, cfg.APITimeout(3*time.Second))
	} else {
		slog.Info("profile api base not configured, serving demo registry only")
	}

	slog.Debug("demo registry loaded", "profiles", registry.Len())
	return profile.NewResolver(fetcher, registry), registry, nil
}

func buildFront(cfg config.Config) (http.Handler, error) {
	resolver, _, err := buildResolver(cfg)
	if err != nil {
		return nil, err
	}
	return api.NewFrontHandler(api.FrontDeps{
		Resolver:    resolver,
		SiteURL:     cfg.Front.SiteURL,
		ProductName: cfg.Front.ProductName,
	}), nil
}

// serveHTTP runs handler on addr until ctx is cancelled, then shuts down
// gracefully. In-flight requests keep their own contexts during shutdown.
func serveHTTP(ctx context.Context, name, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "server", name, "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down", "server", name)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}
	return nil
}
