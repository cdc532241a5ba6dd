// Package config loads runtime settings for the catalog client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finitefield.org/catalog-client/internal/pagination"
)

const (
	defaultEnvFile     = ".env"
	defaultAPIBaseURL  = "http://localhost:8000"
	defaultAPITimeout  = 10 * time.Second
	defaultImagePrefix = "../images/"
	defaultLogLevel    = "info"
	defaultPresignTTL  = 15 * time.Minute
	defaultStoreRegion = "us-east-1"

	// maxPresignTTL is the longest lifetime S3-compatible stores accept for presigned URLs.
	maxPresignTTL = 7 * 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	API      APIConfig
	Catalog  CatalogConfig
	Images   ImageConfig
	LogLevel string
}

// APIConfig points at the remote catalog service.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CatalogConfig controls listing behaviour.
type CatalogConfig struct {
	PageSize     int
	FallbackFile string
}

// ImageConfig controls how reference images are located for recommendations.
type ImageConfig struct {
	Prefix string
	Store  ObjectStoreConfig
}

// ObjectStoreConfig describes an optional S3-compatible bucket holding reference images.
type ObjectStoreConfig struct {
	Endpoint   string
	Bucket     string
	Region     string
	KeyPrefix  string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	PresignTTL time.Duration
}

// Enabled reports whether reference images should be served from the object store.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment variables
// and explicit values, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	var invalid []string
	cfg := Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(stringWithDefault(lookup, "CATALOG_API_BASE_URL", defaultAPIBaseURL), "/"),
			Timeout: durationWithDefault(lookup, "CATALOG_API_TIMEOUT", defaultAPITimeout, &invalid),
		},
		Catalog: CatalogConfig{
			PageSize:     intWithDefault(lookup, "CATALOG_PAGE_SIZE", pagination.PageSize, &invalid),
			FallbackFile: stringWithDefault(lookup, "CATALOG_FALLBACK_FILE", ""),
		},
		Images: ImageConfig{
			Prefix: stringWithDefault(lookup, "CATALOG_IMAGE_PREFIX", defaultImagePrefix),
			Store: ObjectStoreConfig{
				Endpoint:   stringWithDefault(lookup, "CATALOG_IMAGE_STORE_ENDPOINT", ""),
				Bucket:     stringWithDefault(lookup, "CATALOG_IMAGE_STORE_BUCKET", ""),
				Region:     stringWithDefault(lookup, "CATALOG_IMAGE_STORE_REGION", defaultStoreRegion),
				KeyPrefix:  strings.Trim(stringWithDefault(lookup, "CATALOG_IMAGE_STORE_KEY_PREFIX", "images"), "/"),
				AccessKey:  stringWithDefault(lookup, "CATALOG_IMAGE_STORE_ACCESS_KEY", ""),
				SecretKey:  stringWithDefault(lookup, "CATALOG_IMAGE_STORE_SECRET_KEY", ""),
				UseSSL:     boolWithDefault(lookup, "CATALOG_IMAGE_STORE_USE_SSL", true),
				PresignTTL: durationWithDefault(lookup, "CATALOG_IMAGE_STORE_URL_TTL", defaultPresignTTL, &invalid),
			},
		},
		LogLevel: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
	}

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	missing := append([]string(nil), invalid...)

	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "API.BaseURL")
	}
	if cfg.API.Timeout <= 0 {
		missing = append(missing, "API.Timeout")
	}
	// Page size is fixed by the catalog service protocol.
	if cfg.Catalog.PageSize != pagination.PageSize {
		missing = append(missing, "Catalog.PageSize")
	}
	if strings.TrimSpace(cfg.Images.Prefix) == "" {
		missing = append(missing, "Images.Prefix")
	}
	if store := cfg.Images.Store; store.Enabled() {
		if strings.TrimSpace(store.Bucket) == "" {
			missing = append(missing, "Images.Store.Bucket")
		}
		if strings.TrimSpace(store.AccessKey) == "" {
			missing = append(missing, "Images.Store.AccessKey")
		}
		if strings.TrimSpace(store.SecretKey) == "" {
			missing = append(missing, "Images.Store.SecretKey")
		}
		if store.PresignTTL <= 0 || store.PresignTTL > maxPresignTTL {
			missing = append(missing, "Images.Store.PresignTTL")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{fields: dedupe(missing)}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration, invalid *[]string) time.Duration {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		*invalid = append(*invalid, key)
		return fallback
	}
	return d
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int, invalid *[]string) int {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*invalid = append(*invalid, key)
		return fallback
	}
	return parsed
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
