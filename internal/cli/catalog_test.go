package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mindgate-service/internal/domain"
	"mindgate-service/internal/infra/memory"
)

func TestPrintCatalogRejectsInvalidCatalog(t *testing.T) {
	loader := memory.NewStaticCatalogLoader(domain.Catalog{Games: []domain.Game{
		{ID: "game-1", Name: "Empty"},
	}})
	var out bytes.Buffer
	err := printCatalog(context.Background(), &out, loader)
	if !errors.Is(err, domain.ErrEmptyGame) {
		t.Fatalf("expected ErrEmptyGame, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing printed, got %q", out.String())
	}
}

func TestCatalogCommandPrintsBuiltInCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := NewCatalogCmd(&path)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Memory Grid") || !strings.Contains(out.String(), "g7-l1") {
		t.Fatalf("expected built-in catalog in output, got %q", out.String())
	}
}
