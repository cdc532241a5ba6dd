package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mitchellh/mapstructure"
)

const placeholderImage = "/placeholder.svg"

// ErrInvalidProduct indicates a payload that cannot be read as a product record.
var ErrInvalidProduct = errors.New("catalog: invalid product")

// Product is the canonical product record used by every component after ingestion.
type Product struct {
	ID             string   `mapstructure:"id" json:"id"`
	DisplayName    string   `mapstructure:"productDisplayName" json:"productDisplayName"`
	ArticleType    string   `mapstructure:"articleType" json:"articleType"`
	MasterCategory string   `mapstructure:"masterCategory" json:"masterCategory"`
	SubCategory    string   `mapstructure:"subCategory" json:"subCategory"`
	Gender         string   `mapstructure:"gender" json:"gender"`
	BaseColour     string   `mapstructure:"baseColour" json:"baseColour"`
	Season         string   `mapstructure:"season" json:"season"`
	Usage          string   `mapstructure:"usage" json:"usage"`
	Year           int      `mapstructure:"year" json:"year,omitempty"`
	Image          string   `mapstructure:"image" json:"image,omitempty"`
	Price          *float64 `mapstructure:"price" json:"price,omitempty"`
}

// fieldAliases lists, per canonical key, the spellings accepted from upstream payloads
// in priority order.
var fieldAliases = []struct {
	canonical string
	aliases   []string
}{
	{"id", []string{"id", "ID", "_id"}},
	{"productDisplayName", []string{"productDisplayName", "productdisplayname", "product_display_name", "name"}},
	{"articleType", []string{"articleType", "article_type", "articletype"}},
	{"masterCategory", []string{"masterCategory", "master_category", "mastercategory"}},
	{"subCategory", []string{"subCategory", "subcategory", "sub_category"}},
	{"gender", []string{"gender"}},
	{"baseColour", []string{"baseColour", "basecolour", "base_colour", "colour", "color"}},
	{"season", []string{"season"}},
	{"usage", []string{"usage"}},
	{"year", []string{"year"}},
	{"image", []string{"image", "imageURL", "imageUrl", "image_url"}},
	{"price", []string{"price"}},
}

var textPolicy = bluemonday.StrictPolicy()

var productDecodeHook = mapstructure.ComposeDecodeHookFunc(
	trimStringHook(),
)

// DecodeProduct canonicalises a raw product map carrying either naming convention.
func DecodeProduct(raw map[string]any) (Product, error) {
	if raw == nil {
		return Product{}, fmt.Errorf("%w: empty record", ErrInvalidProduct)
	}
	canonical := canonicalFields(raw)

	var p Product
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       productDecodeHook,
		Result:           &p,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Product{}, fmt.Errorf("catalog: build decoder: %w", err)
	}
	if err := dec.Decode(canonical); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	p.sanitize()
	return p, nil
}

// DecodeProducts canonicalises a list of raw product maps. Records that cannot be read
// are reported as an error rather than skipped.
func DecodeProducts(raw []map[string]any) ([]Product, error) {
	out := make([]Product, 0, len(raw))
	for i, item := range raw {
		p, err := DecodeProduct(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// UnmarshalJSON accepts every upstream spelling of the product fields.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	decoded, err := DecodeProduct(raw)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// Attribute returns the canonical attribute matched by a facet.
func (p Product) Attribute(f Facet) string {
	switch f {
	case FacetGender:
		return p.Gender
	case FacetMasterCategory:
		return p.MasterCategory
	case FacetSubCategory:
		return p.SubCategory
	case FacetArticleType:
		return p.ArticleType
	case FacetSeason:
		return p.Season
	case FacetUsage:
		return p.Usage
	default:
		return ""
	}
}

// SearchableText returns the attributes consulted by free-text search.
func (p Product) SearchableText() []string {
	return []string{
		p.DisplayName,
		p.ArticleType,
		p.MasterCategory,
		p.SubCategory,
		p.BaseColour,
		p.Gender,
		p.Usage,
		p.Season,
	}
}

// ImageSrc returns a value usable as an image source. Bare base64 payloads are wrapped
// into data URLs and a missing image resolves to the placeholder.
func (p Product) ImageSrc() string {
	img := strings.TrimSpace(p.Image)
	switch {
	case img == "":
		return placeholderImage
	case strings.HasPrefix(img, "data:image/"):
		return img
	case strings.HasPrefix(img, "/9j/"), strings.HasPrefix(img, "iVBOR"):
		return "data:image/jpeg;base64," + img
	default:
		return img
	}
}

// Clone returns a copy that shares no pointers with p.
func (p Product) Clone() Product {
	if p.Price != nil {
		price := *p.Price
		p.Price = &price
	}
	return p
}

// CloneProducts copies a product slice; a nil input yields an empty slice.
func CloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func (p *Product) sanitize() {
	for _, field := range []*string{
		&p.DisplayName, &p.ArticleType, &p.MasterCategory, &p.SubCategory,
		&p.Gender, &p.BaseColour, &p.Season, &p.Usage,
	} {
		*field = stripMarkup(*field)
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Image = strings.TrimSpace(p.Image)
}

func stripMarkup(value string) string {
	if value == "" || !strings.ContainsAny(value, "<>&") {
		return strings.TrimSpace(value)
	}
	// StrictPolicy escapes entities; undo that so "Home & Living" survives unchanged.
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

func canonicalFields(raw map[string]any) map[string]any {
	folded := make(map[string]any, len(raw))
	for key, value := range raw {
		folded[foldKey(key)] = value
	}

	out := make(map[string]any, len(fieldAliases))
	for _, field := range fieldAliases {
		for _, alias := range field.aliases {
			value, ok := raw[alias]
			if !ok {
				value, ok = folded[foldKey(alias)]
			}
			if !ok || isBlank(value) {
				continue
			}
			out[field.canonical] = value
			break
		}
	}
	return out
}

func foldKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", ""))
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func trimStringHook() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
}
