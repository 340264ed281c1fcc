// Dressify — storefront edge server and embeddable shopping widget.
// Author: vesaa | License: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vesaa/dressify/internal/backend"
	"github.com/vesaa/dressify/internal/config"
	"github.com/vesaa/dressify/internal/embedcheck"
	"github.com/vesaa/dressify/internal/server"
	"github.com/vesaa/dressify/internal/storefront"
)

const version = "v0.1.0"

func printBanner(cfg *config.Config) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Printf("  DRESSIFY %s - STOREFRONT EDGE SERVER\n", version)
	fmt.Println(line)
	fmt.Printf("   Local:    http://localhost:%d\n", cfg.Port)
	fmt.Printf("   Backend:  %s\n", cfg.BackendURL)
	fmt.Printf("   Widget:   %s\n", cfg.WidgetURL)
	fmt.Println(line)
	fmt.Println("\n  To embed on any website, add this script:")
	fmt.Printf("   <script src=\"%s/embed.js\"></script>\n\n", cfg.WidgetURL)
}

// loadConfig reads config and applies the persistent CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	changed := false
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
		changed = true
	}
	if cmd.Flags().Changed("backend") {
		cfg.BackendURL, _ = cmd.Flags().GetString("backend")
		changed = true
	}
	if changed {
		if err := cfg.Normalize(); err != nil {
			return nil, fmt.Errorf("applying flags: %w", err)
		}
	}

	lvl, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(lvl)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	printBanner(cfg)

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:   "dressify",
		Short: "Dressify — storefront edge server and embeddable shopping widget",
		Long: `Dressify serves the storefront single-page app and the embeddable widget
loader, and proxies /api and /images requests to the product backend.
Run without a subcommand to start the server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().String("config", "", "Config file (default ./config.yaml or ~/.dressify/config.yaml)")
	root.PersistentFlags().Int("port", 0, "Listen port (overrides PORT)")
	root.PersistentFlags().String("backend", "", "Backend origin (overrides BACKEND_URL)")

	// ── serve subcommand ──────────────────────────────────────────────────────
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the edge server (static assets, /embed.js, backend proxy)",
		RunE:  runServe,
	}

	// ── render subcommand ─────────────────────────────────────────────────────
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch the catalog from the backend and write the storefront as static HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeoutDuration())
			defer client.Close()

			app, err := storefront.New(client, storefront.Options{
				ItemsPerCategory: cfg.ItemsPerCategory,
				Alerter: storefront.AlertFunc(func(msg string) {
					fmt.Fprintln(os.Stderr, msg)
				}),
			})
			if err != nil {
				return err
			}

			query := url.Values{}
			if id, _ := cmd.Flags().GetString("product"); id != "" {
				query.Set(storefront.DeepLinkParam, id)
			}
			if err := app.Init(cmd.Context(), query); err != nil {
				// The page still renders the failure state.
				log.Warn(err)
			}

			var out io.Writer = cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}
			return app.WritePage(out)
		},
	}
	renderCmd.Flags().String("product", "", "Open this product id in the detail view")
	renderCmd.Flags().String("out", "", "Write HTML to this file instead of stdout")

	// ── verify-embed subcommand ───────────────────────────────────────────────
	verifyCmd := &cobra.Command{
		Use:   "verify-embed",
		Short: "Load /embed.js into a third-party page in headless Chrome and check its behavior",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			target, _ := cmd.Flags().GetString("url")
			if target == "" {
				target = cfg.WidgetURL
			}
			chrome, _ := cmd.Flags().GetString("chrome")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			rep, err := embedcheck.Run(cmd.Context(), embedcheck.Options{
				ServerURL:  target,
				ChromePath: chrome,
				Timeout:    timeout,
			})
			if err != nil {
				return err
			}

			fmt.Printf("  containers:               %d\n", rep.Containers)
			fmt.Printf("  open after click:         %t\n", rep.OpenAfterClick)
			fmt.Printf("  open after foreign close: %t\n", rep.OpenAfterForeignClose)
			fmt.Printf("  closed after 2nd click:   %t\n", rep.ClosedAfterSecondClick)
			fmt.Printf("  closed by widget:         %t\n", rep.ClosedAfterWidgetClose)
			if problems := rep.Problems(); len(problems) > 0 {
				return fmt.Errorf("embed check failed: %s", strings.Join(problems, "; "))
			}
			fmt.Println("  ✓ embed script OK")
			return nil
		},
	}
	verifyCmd.Flags().String("url", "", "Edge server URL (default: widget_url)")
	verifyCmd.Flags().String("chrome", "", "Chrome binary (default: first found on PATH)")
	verifyCmd.Flags().Duration("timeout", 30*time.Second, "Overall browser timeout")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print Dressify version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Dressify %s\n", version)
		},
	}

	root.AddCommand(serveCmd, renderCmd, verifyCmd, versionCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
