package fallback

import (
	"strings"

	"golang.org/x/text/cases"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/pagination"
)

// Notice is the user visible message attached to locally produced results.
const Notice = "API connection failed - showing sample data"

// FilterAndPaginate applies search, facet filters and pagination to products.
//
// Search and every constrained facet are case-insensitive substring matches combined
// with AND. The requested page is never clamped: a page past the end yields no items.
// Page markers list at most the first five pages.
func FilterAndPaginate(products []catalog.Product, query catalog.Query) catalog.DisplayState {
	m := newMatcher()
	search := strings.TrimSpace(query.SearchText)
	active := query.Filters.Active()

	filtered := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !m.anyContains(p.SearchableText(), search) {
			continue
		}
		if !m.matchesFilters(p, query.Filters, active) {
			continue
		}
		filtered = append(filtered, p)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	start := pagination.Offset(page, pagination.PageSize)
	end := min(start+pagination.PageSize, len(filtered))

	items := []catalog.Product{}
	if start < len(filtered) {
		items = catalog.CloneProducts(filtered[start:end])
	}
	totalPages := pagination.TotalPages(len(filtered), pagination.PageSize)

	return catalog.DisplayState{
		Items:            items,
		TotalPages:       totalPages,
		PageMarkers:      pagination.LeadingPages(totalPages, pagination.MaxLeadingPages),
		CurrentPage:      page,
		PageSize:         pagination.PageSize,
		ErrorMessage:     Notice,
		SourceIsFallback: true,
	}
}

// matcher folds case with a caser that is private to one call.
type matcher struct {
	caser cases.Caser
}

func newMatcher() *matcher {
	return &matcher{caser: cases.Fold()}
}

func (m *matcher) contains(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(m.caser.String(haystack), m.caser.String(needle))
}

func (m *matcher) anyContains(fields []string, needle string) bool {
	for _, field := range fields {
		if m.contains(field, needle) {
			return true
		}
	}
	return false
}

func (m *matcher) matchesFilters(p catalog.Product, filters catalog.FilterCriteria, active []catalog.Facet) bool {
	for _, facet := range active {
		if !m.contains(p.Attribute(facet), filters.Get(facet)) {
			return false
		}
	}
	return true
}
