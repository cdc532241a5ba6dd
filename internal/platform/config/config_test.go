package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.API.BaseURL != defaultAPIBaseURL {
		t.Errorf("expected default base url, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.API.Timeout)
	}
	if cfg.Catalog.PageSize != 9 {
		t.Errorf("unexpected page size: %d", cfg.Catalog.PageSize)
	}
	if cfg.Images.Prefix != "../images/" {
		t.Errorf("unexpected image prefix: %s", cfg.Images.Prefix)
	}
	if cfg.Images.Store.Enabled() {
		t.Errorf("expected object store to be disabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "CATALOG_API_BASE_URL=http://dotenv:9000\n" +
		"CATALOG_API_TIMEOUT=3s\n" +
		"export LOG_LEVEL=\"debug\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envPath),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"CATALOG_API_TIMEOUT": "5s"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://dotenv:9000" {
		t.Errorf("expected dotenv base url, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("expected explicit map to win, got %s", cfg.API.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected dotenv log level, got %s", cfg.LogLevel)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadObjectStore(t *testing.T) {
	env := map[string]string{
		"CATALOG_IMAGE_STORE_ENDPOINT":   "minio.local:9000",
		"CATALOG_IMAGE_STORE_BUCKET":     "catalog-images",
		"CATALOG_IMAGE_STORE_ACCESS_KEY": "access",
		"CATALOG_IMAGE_STORE_SECRET_KEY": "secret",
		"CATALOG_IMAGE_STORE_USE_SSL":    "false",
		"CATALOG_IMAGE_STORE_URL_TTL":    "1h",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	store := cfg.Images.Store
	if !store.Enabled() || store.Bucket != "catalog-images" || store.UseSSL || store.PresignTTL != time.Hour {
		t.Errorf("unexpected store config: %+v", store)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"CATALOG_API_BASE_URL":         "not a url",
		"CATALOG_API_TIMEOUT":          "soon",
		"CATALOG_PAGE_SIZE":            "12",
		"CATALOG_IMAGE_STORE_ENDPOINT": "minio.local:9000",
		"CATALOG_IMAGE_STORE_URL_TTL":  "720h",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"CATALOG_API_TIMEOUT":     true,
		"API.BaseURL":             true,
		"Catalog.PageSize":        true,
		"Images.Store.Bucket":     true,
		"Images.Store.AccessKey":  true,
		"Images.Store.SecretKey":  true,
		"Images.Store.PresignTTL": true,
	}
	fields := vErr.Fields()
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Errorf("unexpected field %s", f)
		}
	}
}
