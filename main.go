package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/config"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/logger"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/metamodel"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/query"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/server"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

var (
	configPath string
	dbPath     string
	logJSON    bool
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "archimodel",
	Short:         "Versioned ArchiMate model store with graph queries over MCP",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if cmd.Flags().Changed("log-json") {
			cfg.Log.JSON = logJSON
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		return logger.Initialize(cfg.Log.JSON, cfg.Log.Level)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio or streamable HTTP",
	RunE:  runServe,
}

var (
	serveTransport string
	servePort      int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./archimodel.toml or ~/.config/archimodel/archimodel.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// The bare root command serves too.
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&serveTransport, "transport", "", "Transport mode: stdio or http (overrides config)")
		c.Flags().IntVar(&servePort, "port", 0, "HTTP port (only used with --transport http)")
	}
	rootCmd.RunE = runServe

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openBackend opens the store and the query engine configured by cfg.
func openBackend(ctx context.Context) (*storage.Store, *query.Engine, error) {
	catalog, err := metamodel.Load(cfg.Metamodel.Catalog)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(ctx, cfg.Database.Path, storage.Options{
		Logger:              logger.Named("storage"),
		Catalog:             catalog,
		DefaultVersionLimit: cfg.Versions.DefaultLimit,
		MaxVersionLimit:     cfg.Versions.MaxLimit,
		MaxModelList:        cfg.Models.MaxList,
	})
	if err != nil {
		return nil, nil, err
	}
	engine := query.New(store, catalog, query.Options{
		Logger:       logger.Named("query"),
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
		SliceLimit:   cfg.Query.SliceLimit,
	})
	return store, engine, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveTransport != "" {
		cfg.Server.Transport = serveTransport
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, engine, err := openBackend(ctx)
	if err != nil {
		return errors.Wrap(err, "open model store")
	}
	defer store.Close()

	srv := server.New(store, engine)

	switch cfg.Server.Transport {
	case "stdio":
		logger.Logger.Infow("ArchiMate model server starting", "transport", "stdio", "db", cfg.Database.Path)
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "stdio server")
		}
		return nil
	default:
		return serveHTTP(ctx, srv)
	}
}

func serveHTTP(ctx context.Context, srv *mcp.Server) error {
	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Handler(srv, server.HTTPOptions{
			BearerToken: cfg.Server.BearerToken,
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
			Logger:      logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Infow("ArchiMate model server listening", "addr", httpSrv.Addr, "auth", cfg.Server.BearerToken != "")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	logger.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
