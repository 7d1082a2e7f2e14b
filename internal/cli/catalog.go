package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"mindgate-service/internal/config"
	"mindgate-service/internal/domain"
	"mindgate-service/internal/infra/file"
	"mindgate-service/internal/infra/memory"
	pgloader "mindgate-service/internal/infra/postgres"
)

// NewCatalogCmd prints the catalog the server would start with, as YAML.
func NewCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the validated game catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			loader, closeLoader, err := newCatalogLoader(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeLoader()

			return printCatalog(cmd.Context(), cmd.OutOrStdout(), loader)
		},
	}
}

// printCatalog loads, validates and writes the catalog as YAML.
func printCatalog(ctx context.Context, w io.Writer, loader memory.CatalogLoader) error {
	catalog, err := loader.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	data, err := file.EncodeCatalog(catalog)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// loadConfig reads the config file and applies logging settings.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	setupLogging(cfg)
	return cfg, nil
}

// newCatalogLoader picks the catalog source: a YAML file when configured, then Postgres,
// then the built-in catalog.
func newCatalogLoader(ctx context.Context, cfg config.Config) (memory.CatalogLoader, func(), error) {
	switch {
	case cfg.Catalog.Path != "":
		log.Info().Str("path", cfg.Catalog.Path).Msg("catalog from file")
		return file.NewCatalogLoader(cfg.Catalog.Path), func() {}, nil
	case cfg.Postgres.URL != "":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.Connect(connectCtx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("catalog from postgres")
		return pgloader.NewCatalogLoader(pool), pool.Close, nil
	default:
		log.Info().Msg("catalog from built-in defaults")
		return memory.NewStaticCatalogLoader(memory.DefaultCatalog()), func() {}, nil
	}
}

// seedCatalog returns the catalog written by `migrate --seed`.
func seedCatalog(cfg config.Config) (domain.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return file.NewCatalogLoader(cfg.Catalog.Path).LoadCatalog(context.Background())
	}
	return memory.DefaultCatalog(), nil
}
