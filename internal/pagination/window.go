// Package pagination computes page windows and navigation state for paginated listings.
package pagination

import "strconv"

const (
	// PageSize is the fixed number of products shown per catalog page.
	PageSize = 9
	// MaxLeadingPages caps the markers produced for locally paginated results.
	MaxLeadingPages = 5

	// compactThreshold is the largest page count rendered without ellipses.
	compactThreshold = 7
	ellipsisText     = "..."
)

// Marker is one entry of a page window: either a concrete page or an ellipsis gap.
type Marker struct {
	Page     int
	Ellipsis bool
}

// PageMarker returns a marker for page n.
func PageMarker(n int) Marker { return Marker{Page: n} }

// EllipsisMarker returns a gap marker.
func EllipsisMarker() Marker { return Marker{Ellipsis: true} }

// String renders the marker as shown to users.
func (m Marker) String() string {
	if m.Ellipsis {
		return ellipsisText
	}
	return strconv.Itoa(m.Page)
}

// ComputeWindow returns the page markers to display for the current page.
//
// Up to seven pages are listed in full. Beyond that the first two and last two pages
// are always present, the current page is shown with its neighbours, and every gap is
// represented by its own ellipsis marker.
func ComputeWindow(current, total int) []Marker {
	if total <= 0 {
		return []Marker{}
	}
	if total <= compactThreshold {
		out := make([]Marker, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, PageMarker(i))
		}
		return out
	}

	out := make([]Marker, 0, 9)
	seen := make(map[int]struct{}, 7)
	addPage := func(n int) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, PageMarker(n))
	}

	addPage(1)
	addPage(2)
	if current > 4 {
		out = append(out, EllipsisMarker())
	}

	start := max(3, current-1)
	end := min(total-2, current+1)
	for i := start; i <= end; i++ {
		addPage(i)
	}

	if current < total-3 {
		out = append(out, EllipsisMarker())
	}
	addPage(total - 1)
	addPage(total)
	return out
}

// LeadingPages returns the first min(total, limit) page numbers. Locally paginated
// results expose these markers instead of a window around the current page.
func LeadingPages(total, limit int) []int {
	if limit <= 0 {
		limit = MaxLeadingPages
	}
	n := min(total, limit)
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// TotalPages returns ceil(count/size). An empty result has zero pages.
func TotalPages(count, size int) int {
	if count <= 0 {
		return 0
	}
	if size <= 0 {
		size = PageSize
	}
	pages := count / size
	if count%size > 0 {
		pages++
	}
	return pages
}

// Offset returns the slice start index for a 1-based page.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = PageSize
	}
	return (page - 1) * size
}
