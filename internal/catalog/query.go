package catalog

import "strings"

// Query is the complete user intent driving a catalog request.
type Query struct {
	Filters    FilterCriteria
	SearchText string
	Page       int
}

// NewQuery returns the initial query: no filters, no search, first page.
func NewQuery() Query {
	return Query{Filters: FilterCriteria{}, Page: 1}
}

// WithFilter sets one facet and resets the page to 1.
func (q Query) WithFilter(f Facet, value string) Query {
	q.Filters = q.Filters.Set(f, value)
	q.Page = 1
	return q
}

// WithSearch replaces the search text and resets the page to 1.
func (q Query) WithSearch(text string) Query {
	q.Filters = q.Filters.Clone()
	q.SearchText = strings.TrimSpace(text)
	q.Page = 1
	return q
}

// WithoutFilters clears every facet and the search text and resets the page to 1.
func (q Query) WithoutFilters() Query {
	return NewQuery()
}

// WithPage moves to page n leaving filters and search untouched.
func (q Query) WithPage(n int) Query {
	if n < 1 {
		n = 1
	}
	q.Filters = q.Filters.Clone()
	q.Page = n
	return q
}

// Clone returns a deep copy of the query.
func (q Query) Clone() Query {
	q.Filters = q.Filters.Clone()
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Equal reports whether both queries describe the same request.
func (q Query) Equal(other Query) bool {
	return q.Page == other.Page &&
		strings.TrimSpace(q.SearchText) == strings.TrimSpace(other.SearchText) &&
		q.Filters.Equal(other.Filters)
}

// HasActiveFilters reports whether any facet is constrained.
func (q Query) HasActiveFilters() bool {
	return !q.Filters.IsEmpty()
}
