package cli

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"mindgate-service/internal/app"
	"mindgate-service/internal/config"
	"mindgate-service/internal/infra/memory"
	redisstore "mindgate-service/internal/infra/redis"
	"mindgate-service/internal/infra/simulated"
	transport "mindgate-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the training server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" && cfg.Catalog.Path == "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loader, closeLoader, err := newCatalogLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)
	catalogTTL := config.Duration(cfg.Catalog.TTL, 10*time.Minute)

	var catalogs app.CatalogRepository
	var store app.SessionRepository
	if redisClient != nil {
		catalogs = redisstore.NewCatalogRepository(redisClient, loader, catalogTTL)
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
		store = memory.NewSessionStore()
	}

	submitter := simulated.NewSubmissionService(
		simulated.WithLatency(config.Duration(cfg.Submission.Latency, simulated.DefaultLatency)),
		simulated.WithTimeout(config.Duration(cfg.Submission.Timeout, simulated.DefaultTimeout)),
		simulated.WithDecider(simulated.FailureRate(
			cfg.FailureRate(simulated.DefaultFailureRate),
			rand.New(rand.NewSource(time.Now().UnixNano())),
		)),
	)
	service := app.NewTrainingService(store, catalogs, submitter)

	// Fail fast on a broken catalog instead of on the first session.
	if _, err := service.Catalog(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting training service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
