package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mindgate-service/internal/domain"
	"mindgate-service/internal/infra/memory"
)

const sampleYAML = `
games:
  - id: game-1
    name: Memory Grid
    icon: brain
    kind: memory-grid
    description: Remember the pattern
    rules:
      - Watch the cells
    levels:
      - id: g7-l1
        title: "Level 1: Basic Pattern"
        content: Three cells in a 4x4 grid.
      - id: g7-l2
        title: "Level 2: Intermediate Pattern"
        content: Four cells in a 5x5 grid.
  - id: game-2
    name: Quick Math
    icon: calculator
    levels:
      - id: g4-l1
        title: Level 1
        content: Solve basic addition.
`

func TestCatalogLoaderReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := NewCatalogLoader(path).LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(catalog.Games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(catalog.Games))
	}
	first := catalog.Games[0]
	if first.Kind != domain.GameKindMemoryGrid || len(first.Levels) != 2 || first.Levels[1].ID != "g7-l2" {
		t.Fatalf("unexpected first game %+v", first)
	}
}

func TestCatalogLoaderRejectsEmptyGame(t *testing.T) {
	_, err := DecodeCatalog([]byte("games:\n  - id: game-1\n    name: Empty\n"))
	if !errors.Is(err, domain.ErrEmptyGame) {
		t.Fatalf("expected ErrEmptyGame, got %v", err)
	}
}

func TestCatalogLoaderMissingFile(t *testing.T) {
	_, err := NewCatalogLoader(filepath.Join(t.TempDir(), "nope.yaml")).LoadCatalog(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEncodeDecodeDefaultCatalog(t *testing.T) {
	data, err := EncodeCatalog(memory.DefaultCatalog())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	catalog, err := DecodeCatalog(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(catalog.Games) != len(memory.DefaultCatalog().Games) {
		t.Fatalf("expected game count preserved, got %d", len(catalog.Games))
	}
}
