package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/server"
)

const defaultAddr = ":5000"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :5000 or :$PORT)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the "+app+" server", zap.String("version", version))

	cache := catalog.NewCache(config.Catalog.Path, logger)
	if _, err := cache.Reload(); err != nil {
		// Requests report the catalog error until a reload succeeds.
		logger.Error("initial catalog load failed", zap.String("path", config.Catalog.Path), zap.Error(err))
	}
	go cache.Watch(ctx, config.Catalog.ReloadInterval)

	svc, err := newRecommendService(ctx, config, cache, logger)
	if err != nil {
		logger.Fatal("creating the recommender", zap.Error(err))
	}

	if err := server.Serve(ctx, listenAddr(config.Server), server.New(svc, logger), logger); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}

	logger.Info("server stopped")
}

func listenAddr(cfg *ServerConfig) string {
	switch {
	case cfg == nil:
		return defaultAddr
	case cfg.Addr != "":
		return cfg.Addr
	case cfg.Port != "":
		return ":" + cfg.Port
	default:
		return defaultAddr
	}
}
