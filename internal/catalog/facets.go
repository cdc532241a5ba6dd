package catalog

import (
	"sort"
	"strings"
)

// Facet names a single filterable product attribute.
type Facet string

const (
	FacetGender         Facet = "gender"
	FacetMasterCategory Facet = "masterCategory"
	FacetSubCategory    Facet = "subCategory"
	FacetArticleType    Facet = "articleType"
	FacetSeason         Facet = "season"
	FacetUsage          Facet = "usage"
)

var facetOrder = []Facet{
	FacetGender,
	FacetMasterCategory,
	FacetSubCategory,
	FacetArticleType,
	FacetSeason,
	FacetUsage,
}

// dataNames maps the snake_case spellings used by some upstream payloads.
var dataNames = map[string]Facet{
	"master_category": FacetMasterCategory,
	"mastercategory":  FacetMasterCategory,
	"sub_category":    FacetSubCategory,
	"subcategory":     FacetSubCategory,
	"article_type":    FacetArticleType,
	"articletype":     FacetArticleType,
}

// Facets returns every supported facet in display order.
func Facets() []Facet {
	out := make([]Facet, len(facetOrder))
	copy(out, facetOrder)
	return out
}

// ParseFacet resolves either the UI facet name or its data-name variant.
func ParseFacet(name string) (Facet, bool) {
	name = strings.TrimSpace(name)
	for _, f := range facetOrder {
		if string(f) == name {
			return f, true
		}
	}
	if f, ok := dataNames[strings.ToLower(name)]; ok {
		return f, true
	}
	for _, f := range facetOrder {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

// Label returns the human readable facet label.
func (f Facet) Label() string {
	switch f {
	case FacetGender:
		return "Gender"
	case FacetMasterCategory:
		return "Master Category"
	case FacetSubCategory:
		return "Sub Category"
	case FacetArticleType:
		return "Article Type"
	case FacetSeason:
		return "Season"
	case FacetUsage:
		return "Usage"
	default:
		return string(f)
	}
}

// FilterOptions lists the selectable values offered by the filter panel for each facet.
func FilterOptions() map[Facet][]string {
	return map[Facet][]string{
		FacetGender:         {"Men", "Women", "Unisex"},
		FacetMasterCategory: {"Apparel", "Footwear", "Accessories", "Personal Care", "Home & Living"},
		FacetSubCategory:    {"Topwear", "Bottomwear", "Innerwear", "Shoes", "Bags", "Watches"},
		FacetArticleType:    {"Shirts", "Jeans", "T-shirts", "Dresses", "Sneakers", "Formal Shoes"},
		FacetSeason:         {"Summer", "Winter", "Fall", "Spring", "All Season"},
		FacetUsage:          {"Casual", "Formal", "Sports", "Party", "Ethnic", "Travel"},
	}
}

// FilterCriteria maps facets to a selected value. A missing or blank value means the
// facet is unconstrained. FilterCriteria is treated as immutable: Set returns a copy.
type FilterCriteria map[Facet]string

// Get returns the trimmed value for the facet.
func (c FilterCriteria) Get(f Facet) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[f])
}

// Set returns a copy of the criteria with the facet updated. A blank value clears it.
func (c FilterCriteria) Set(f Facet, value string) FilterCriteria {
	out := c.Clone()
	value = strings.TrimSpace(value)
	if value == "" {
		delete(out, f)
		return out
	}
	out[f] = value
	return out
}

// Clone returns an independent copy holding only the constrained facets.
func (c FilterCriteria) Clone() FilterCriteria {
	out := make(FilterCriteria, len(c))
	for f, v := range c {
		if v = strings.TrimSpace(v); v != "" {
			out[f] = v
		}
	}
	return out
}

// Active lists the constrained facets in display order.
func (c FilterCriteria) Active() []Facet {
	var out []Facet
	for _, f := range facetOrder {
		if c.Get(f) != "" {
			out = append(out, f)
		}
	}
	// Unknown facets keep a stable order after the known ones.
	var extra []Facet
	for f := range c {
		if _, known := facetIndex(f); !known && c.Get(f) != "" {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// IsEmpty reports whether no facet is constrained.
func (c FilterCriteria) IsEmpty() bool {
	for _, v := range c {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Equal compares the constrained facets of both criteria.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	a, b := c.Clone(), other.Clone()
	if len(a) != len(b) {
		return false
	}
	for f, v := range a {
		if b[f] != v {
			return false
		}
	}
	return true
}

func facetIndex(f Facet) (int, bool) {
	for i, known := range facetOrder {
		if known == f {
			return i, true
		}
	}
	return -1, false
}
