// Package fallback holds the sample catalog and the local filter engine used when the
// catalog service is unreachable.
package fallback

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"finitefield.org/catalog-client/internal/catalog"
)

var (
	//go:embed dataset.yaml
	datasetYAML []byte
	//go:embed recommendations.yaml
	recommendationsYAML []byte
)

var (
	datasetOnce  sync.Once
	dataset      []catalog.Product
	demoOnce     sync.Once
	demoProducts []catalog.Product
)

// Dataset returns a copy of the built-in sample catalog.
func Dataset() []catalog.Product {
	datasetOnce.Do(func() {
		dataset = mustLoad("dataset.yaml", datasetYAML)
	})
	return catalog.CloneProducts(dataset)
}

// DemoRecommendations returns a copy of the fixed recommendation list.
func DemoRecommendations() []catalog.Product {
	demoOnce.Do(func() {
		demoProducts = mustLoad("recommendations.yaml", recommendationsYAML)
	})
	return catalog.CloneProducts(demoProducts)
}

// LoadDataset reads a YAML list of products. Either field naming convention is accepted.
func LoadDataset(r io.Reader) ([]catalog.Product, error) {
	var raw []map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return []catalog.Product{}, nil
		}
		return nil, fmt.Errorf("fallback: decode dataset: %w", err)
	}
	products, err := catalog.DecodeProducts(raw)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return products, nil
}

// LoadDatasetFile reads a dataset from disk. An empty path yields the built-in dataset.
func LoadDatasetFile(path string) ([]catalog.Product, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Dataset(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fallback: open dataset: %w", err)
	}
	defer f.Close()
	return LoadDataset(f)
}

func mustLoad(name string, data []byte) []catalog.Product {
	products, err := LoadDataset(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("fallback: embedded %s: %v", name, err))
	}
	return products
}
