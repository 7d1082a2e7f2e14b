// Package file loads content authored as YAML files.
package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"mindgate-service/internal/domain"
)

// CatalogLoader reads the catalog from a YAML file on every load; wrap it in a
// cached repository to avoid rereading.
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

func (l *CatalogLoader) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog %s: %w", l.path, err)
	}
	return DecodeCatalog(data)
}

// DecodeCatalog parses and validates a YAML catalog document.
func DecodeCatalog(data []byte) (domain.Catalog, error) {
	var catalog domain.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, err
	}
	return catalog, nil
}

// EncodeCatalog renders a catalog as YAML.
func EncodeCatalog(catalog domain.Catalog) ([]byte, error) {
	return yaml.Marshal(catalog)
}
