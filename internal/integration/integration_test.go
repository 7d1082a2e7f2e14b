package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"mindgate-service/internal/app"
	"mindgate-service/internal/domain"
	pgloader "mindgate-service/internal/infra/postgres"
	pgmigrations "mindgate-service/internal/infra/postgres/migrations"
	infraredis "mindgate-service/internal/infra/redis"
	"mindgate-service/internal/infra/simulated"
)

func TestTrainingEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCatalogLoader(pool)
	if err := loader.SaveCatalog(ctx, sampleCatalog()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	stored, err := loader.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if game, ok := stored.Game("game-a"); !ok || game.Kind != domain.GameKindMemoryGrid || len(game.Levels) != 2 {
		t.Fatalf("stored catalog lost game-a: %+v", game)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	catalogs := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	submitter := simulated.NewSubmissionService(
		simulated.WithLatency(20*time.Millisecond),
		simulated.WithDecider(simulated.AlwaysAccept),
	)
	service := app.NewTrainingService(sessionStore, catalogs, submitter)

	view, err := service.StartSession(ctx)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	id := view.SessionID
	if view.GameID != "game-a" {
		t.Fatalf("expected catalog order from postgres, got %s", view.GameID)
	}
	if n, err := sessionStore.Live(ctx); err != nil || n != 1 {
		t.Fatalf("expected one live session, got %d (%v)", n, err)
	}
	if exists, err := redisClient.Exists(ctx, infraredis.CatalogKey).Result(); err != nil || exists != 1 {
		t.Fatalf("expected catalog cached in redis, got %d (%v)", exists, err)
	}

	if _, err := service.Start(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Next(ctx, id); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := service.Finish(ctx, id); err != nil {
		t.Fatalf("finish game a: %v", err)
	}
	view, err = service.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish game b: %v", err)
	}
	if !view.Progress.Complete {
		t.Fatalf("expected all games passed, got %+v", view.Progress)
	}
	for i, status := range view.Progress.GameStatuses {
		if status != domain.StatusPassed {
			t.Fatalf("game %d: expected passed, got %s", i, status)
		}
	}

	service.End(ctx, id)
	if n, err := sessionStore.Live(ctx); err != nil || n != 0 {
		t.Fatalf("expected no live sessions after end, got %d (%v)", n, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "mindgate", "POSTGRES_PASSWORD": "mindgatepass", "POSTGRES_DB": "mindgate"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://mindgate:mindgatepass@%s:%s/mindgate?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{Games: []domain.Game{
		{ID: "game-a", Name: "Memory Grid", Kind: domain.GameKindMemoryGrid, Levels: []domain.Level{
			{ID: "g7-l1", Title: "Level 1"},
			{ID: "g7-l2", Title: "Level 2"},
		}},
		{ID: "game-b", Name: "Quick Math", Levels: []domain.Level{
			{ID: "g4-l1", Title: "Level 1"},
		}},
	}}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
