// Package imageref resolves the reference image of a product for recommendation requests.
package imageref

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"finitefield.org/catalog-client/internal/platform/config"
)

const (
	DefaultPrefix = "../images/"
	imageExt      = ".jpg"
)

// ErrMissingID is returned when a product has no identifier to locate.
var ErrMissingID = errors.New("imageref: product id is required")

// Locator maps a product id to the file path the recommendation service expects.
type Locator interface {
	Locate(ctx context.Context, productID string) (string, error)
}

// PrefixLocator joins a path prefix with "<id>.jpg".
type PrefixLocator struct {
	Prefix string
}

// NewPrefixLocator returns a PrefixLocator, using DefaultPrefix when prefix is blank.
func NewPrefixLocator(prefix string) PrefixLocator {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return PrefixLocator{Prefix: prefix}
}

// Locate implements Locator.
func (l PrefixLocator) Locate(_ context.Context, productID string) (string, error) {
	id, err := cleanID(productID)
	if err != nil {
		return "", err
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + id + imageExt, nil
}

// ObjectStoreLocator hands out presigned GET URLs for images kept in an S3-compatible bucket.
type ObjectStoreLocator struct {
	client    *minio.Client
	bucket    string
	keyPrefix string
	ttl       time.Duration
}

// NewObjectStoreLocator creates a locator from object store settings.
func NewObjectStoreLocator(cfg config.ObjectStoreConfig) (*ObjectStoreLocator, error) {
	if !cfg.Enabled() {
		return nil, errors.New("imageref: object store endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("imageref: object store bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("imageref: create object store client: %w", err)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ObjectStoreLocator{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		ttl:       ttl,
	}, nil
}

// Key returns the object key holding a product's image.
func (l *ObjectStoreLocator) Key(productID string) (string, error) {
	id, err := cleanID(productID)
	if err != nil {
		return "", err
	}
	return path.Join(l.keyPrefix, id+imageExt), nil
}

// Locate implements Locator.
func (l *ObjectStoreLocator) Locate(ctx context.Context, productID string) (string, error) {
	key, err := l.Key(productID)
	if err != nil {
		return "", err
	}
	u, err := l.client.PresignedGetObject(ctx, l.bucket, key, l.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("imageref: presign %s: %w", key, err)
	}
	return u.String(), nil
}

// New picks the object store locator when configured, otherwise the prefix locator.
func New(cfg config.ImageConfig) (Locator, error) {
	if cfg.Store.Enabled() {
		loc, err := NewObjectStoreLocator(cfg.Store)
		if err != nil {
			return nil, err
		}
		return loc, nil
	}
	return NewPrefixLocator(cfg.Prefix), nil
}

func cleanID(productID string) (string, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return "", ErrMissingID
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("imageref: invalid product id %q", productID)
	}
	return id, nil
}
