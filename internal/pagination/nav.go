package pagination

// Nav captures the navigation contract for a paginated listing: the window of markers,
// whether the controls render at all, and the Previous/Next bounds.
type Nav struct {
	Current int
	Total   int
}

// NewNav builds the navigation state for the given page position.
func NewNav(current, total int) Nav {
	return Nav{Current: current, Total: total}
}

// Visible reports whether navigation controls should be rendered.
func (n Nav) Visible() bool {
	return n.Total > 1
}

// Markers returns the page window for the current position.
func (n Nav) Markers() []Marker {
	if !n.Visible() {
		return []Marker{}
	}
	return ComputeWindow(n.Current, n.Total)
}

// PrevEnabled reports whether the Previous control is active.
func (n Nav) PrevEnabled() bool {
	return n.Visible() && n.Current > 1
}

// NextEnabled reports whether the Next control is active.
func (n Nav) NextEnabled() bool {
	return n.Visible() && n.Current < n.Total
}

// Prev returns the previous page. ok is false when the control is disabled.
func (n Nav) Prev() (int, bool) {
	if !n.PrevEnabled() {
		return n.Current, false
	}
	return n.Current - 1, true
}

// Next returns the following page. ok is false when the control is disabled.
func (n Nav) Next() (int, bool) {
	if !n.NextEnabled() {
		return n.Current, false
	}
	return n.Current + 1, true
}

// Select validates a click on a concrete page marker.
func (n Nav) Select(m Marker) (int, bool) {
	if m.Ellipsis || m.Page < 1 || !n.Visible() {
		return n.Current, false
	}
	return m.Page, true
}
