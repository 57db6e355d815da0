package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/sfero/sfero/internal/api"
	"github.com/sfero/sfero/internal/config"
)

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <slug>",
	Short: "Resolve a public profile once and print it as JSON",
	Long: `Resolve a public profile the same way the profile front does:
upstream API first (when configured), then the demo registry.

Examples:
  sfero resolve demo
  SFERO_PROFILE_API_BASE=https://api.example.com sfero resolve anna-kowalska`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		resolver, _, err := buildResolver(cfg)
		if err != nil {
			return err
		}

		res := resolver.Resolve(cmd.Context(), args[0])
		if !res.Found() {
			printWarning("No profile for %q", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the local edge router and profile front",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return err
		}

		client := newHealthClient()
		down := 0
		for _, t := range statusTargets(cfg) {
			r := client.probe(cmd.Context(), t)
			switch {
			case r.Err != nil:
				down++
				printStatus(t.Name, "%s (%s)", colorize(colorRed, "stopped"), t.URL)
			case !r.healthy():
				down++
				printStatus(t.Name, "%s (%s)", colorize(colorYellow, fmt.Sprintf("error (HTTP %d)", r.Status)), t.URL)
			default:
				printStatus(t.Name, "%s (%s)", colorize(colorGreen, "running"), t.URL)
			}
		}

		printStatus("Primary origin", "%s", cfg.Edge.PrimaryOrigin)
		printStatus("Profile front", "%s", cfg.Edge.ProfileFrontOrigin)
		if cfg.Front.APIBase != "" {
			printStatus("Profile API", "%s", cfg.Front.APIBase)
		} else {
			printStatus("Profile API", "not configured (demo registry only)")
		}

		if down > 0 {
			return fmt.Errorf("%d of 2 services not healthy", down)
		}
		return nil
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve profile resolution over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		resolver, registry, err := buildResolver(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Resolver: resolver,
			Demo:     registry,
			Version:  version,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp stdio server: %w", err)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "["+k.EnvVar+"]"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so the default applies",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
