package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/api"
	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/engine"
	"github.com/gcbaptista/go-collection-search/internal/logging"
)

const shutdownTimeout = 30 * time.Second

var serveOpts struct {
	configPath string
	port       string
	dataDir    string
	logLevel   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server.

Problem definitions are persisted under the data directory and reloaded on
start. Results are kept in memory only.

Examples:
  collection_search serve
  collection_search serve --config server.yaml
  collection_search serve --port 9000 --data-dir /var/lib/collections`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServerConfig(serveOpts.configPath)
		if err != nil {
			return err
		}
		if serveOpts.port != "" {
			cfg.Port = serveOpts.port
		}
		if serveOpts.dataDir != "" {
			cfg.DataDir = serveOpts.dataDir
		}
		if serveOpts.logLevel != "" {
			cfg.LogLevel = serveOpts.logLevel
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			return fmt.Errorf("invalid config: %v", errs)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.configPath, "config", "", "server config file (yaml)")
	serveCmd.Flags().StringVar(&serveOpts.port, "port", "", "port to listen on, overrides the config")
	serveCmd.Flags().StringVar(&serveOpts.dataDir, "data-dir", "", "directory holding problem definitions, overrides the config")
	serveCmd.Flags().StringVar(&serveOpts.logLevel, "log-level", "", "debug, info, warn or error, overrides the config")
}

func serve(ctx context.Context, cfg config.ServerConfig) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting collection search server",
		zap.String("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.Int("max_workers", cfg.MaxWorkers),
	)
	eng := engine.NewEngine(cfg.DataDir,
		engine.WithLogger(logger),
		engine.WithDefaults(cfg.Defaults),
		engine.WithMaxWorkers(cfg.MaxWorkers),
	)
	defer eng.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware(logger))
	router.Use(api.CORSMiddleware())
	router.Use(api.RequestSizeLimitMiddleware(cfg.MaxRequestSizeMB << 20))
	api.SetupRoutes(router, eng, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
