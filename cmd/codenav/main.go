package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/config"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/mcp"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/navigation"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", absRoot, err)
	}

	if limit := c.Int("max-tokens"); limit > 0 {
		cfg.Budget.DefaultTokenLimit = limit
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serveCommand runs the MCP server over stdio until the client disconnects
// or a signal arrives. All diagnostics go to the log file; stdout belongs
// to the protocol.
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	// The language-service backend attaches out of process; until a
	// workspace host is connected every tool reports unavailable with a
	// structured error rather than failing to start.
	service := navigation.Unavailable{Reason: "no workspace host attached"}

	srv, err := mcp.NewServer(service, cfg, version.Version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// statusCommand prints the effective configuration without starting the
// server. Useful for checking which config file won and where logs go.
func statusCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	fmt.Printf("codenav %s\n\n", version.FullInfo())
	fmt.Printf("Root:                %s\n", cfg.Project.Root)
	fmt.Printf("Default token limit: %d\n", cfg.Budget.DefaultTokenLimit)
	fmt.Printf("Resource entries:    %d\n", cfg.Budget.ResourceEntries)
	fmt.Printf("Tree fan-out:        %d\n", cfg.Tree.MaxFanout)
	fmt.Printf("Parallel reduction:  %v\n", cfg.Tree.Parallel)
	fmt.Printf("Log level:           %s\n", cfg.Log.Level)
	if len(cfg.Scoring.GeneratedGlobs) > 0 {
		fmt.Println("Generated globs:")
		for _, g := range cfg.Scoring.GeneratedGlobs {
			fmt.Printf("  %s\n", g)
		}
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:                   "codenav",
		Usage:                  "Code navigation MCP server with token-budget aware responses",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (defaults to the working directory)",
			},
			&cli.IntFlag{
				Name:  "max-tokens",
				Usage: "Default token limit for tool responses (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostic log level: debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server over stdio",
				Action: serveCommand,
			},
			{
				Name:   "status",
				Usage:  "Show the effective configuration",
				Action: statusCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Println(version.FullInfo())
					return nil
				},
			},
		},
		// Running with no command starts the server: MCP clients launch
		// the binary directly.
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
