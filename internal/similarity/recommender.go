package similarity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/fallback"
)

// RecommendationSource returns products similar to a reference image.
type RecommendationSource interface {
	Recommendations(ctx context.Context, filePath string) ([]catalog.Product, error)
}

// Locator resolves the reference image path for a product.
type Locator interface {
	Locate(ctx context.Context, productID string) (string, error)
}

// Recommendation is the outcome shown on a product detail page.
type Recommendation struct {
	Items    []catalog.Product
	Warning  string
	FromDemo bool
}

// Recommender loads "you may also like" products, falling back to a fixed demo list.
type Recommender struct {
	source  RecommendationSource
	locator Locator
	demo    []catalog.Product
	logger  *zap.Logger
}

// NewRecommender wires the recommendation service with an image locator.
func NewRecommender(source RecommendationSource, locator Locator, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		source:  source,
		locator: locator,
		demo:    fallback.DemoRecommendations(),
		logger:  logger.Named("recommender"),
	}
}

// Recommend never fails: errors turn into the demo list plus a non-fatal warning.
func (r *Recommender) Recommend(ctx context.Context, product catalog.Product) Recommendation {
	items, err := r.fetch(ctx, product)
	if err != nil {
		r.logger.Warn("recommendations unavailable, using demo list",
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
		return Recommendation{
			Items:    catalog.CloneProducts(r.demo),
			Warning:  "Failed to load recommendations: " + err.Error(),
			FromDemo: true,
		}
	}
	return Recommendation{Items: items}
}

func (r *Recommender) fetch(ctx context.Context, product catalog.Product) ([]catalog.Product, error) {
	if r.source == nil || r.locator == nil {
		return nil, errors.New("recommendation service not configured")
	}
	filePath, err := r.locator.Locate(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return r.source.Recommendations(ctx, filePath)
}
