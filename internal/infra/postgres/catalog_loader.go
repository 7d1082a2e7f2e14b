package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"mindgate-service/internal/domain"
)

// CatalogLoader loads games stored as JSONB rows, ordered by position.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM games ORDER BY position`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var catalog domain.Catalog
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan game: %w", err)
		}
		var game domain.Game
		if err := json.Unmarshal(raw, &game); err != nil {
			return domain.Catalog{}, fmt.Errorf("unmarshal game: %w", err)
		}
		catalog.Games = append(catalog.Games, game)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog.Games) == 0 {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	return catalog, nil
}

// SaveCatalog replaces the stored games with the given catalog.
func (l *CatalogLoader) SaveCatalog(ctx context.Context, catalog domain.Catalog) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM games`); err != nil {
		return fmt.Errorf("clear games: %w", err)
	}
	for i, game := range catalog.Games {
		data, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("marshal game %q: %w", game.ID, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO games (id, position, data) VALUES ($1, $2, $3::jsonb)`, game.ID, i, string(data)); err != nil {
			return fmt.Errorf("insert game %q: %w", game.ID, err)
		}
	}
	return tx.Commit(ctx)
}
