// Package browser composes the discovery and similarity controllers into the single
// view a rendering layer draws.
package browser

import (
	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/discovery"
	"finitefield.org/catalog-client/internal/pagination"
	"finitefield.org/catalog-client/internal/similarity"
)

// Mode selects what the view shows.
type Mode int

const (
	ModeCatalog Mode = iota
	ModeSimilarity
)

func (m Mode) String() string {
	if m == ModeSimilarity {
		return "similarity"
	}
	return "catalog"
}

// View is everything needed to render one frame.
type View struct {
	Mode    Mode
	Items   []catalog.Product
	Display catalog.DisplayState
	Nav     pagination.Nav
	Loading bool
}

// Session routes user navigation and decides rendering precedence.
type Session struct {
	discovery  *discovery.Controller
	similarity *similarity.Controller
}

// NewSession composes the two controllers.
func NewSession(d *discovery.Controller, s *similarity.Controller) *Session {
	return &Session{discovery: d, similarity: s}
}

// Discovery exposes the catalog controller for filter and search input.
func (s *Session) Discovery() *discovery.Controller { return s.discovery }

// Similarity exposes the similarity controller.
func (s *Session) Similarity() *similarity.Controller { return s.similarity }

// View returns the frame to render. Similarity results take precedence as a single page
// without navigation; the catalog display underneath is kept untouched.
func (s *Session) View() View {
	display := s.discovery.Display()
	sim := s.similarity.State()
	if sim.Active {
		return View{
			Mode:    ModeSimilarity,
			Items:   sim.ResultItems,
			Display: display,
			Nav:     pagination.NewNav(1, 1),
		}
	}
	return View{
		Mode:    ModeCatalog,
		Items:   display.Items,
		Display: display,
		Nav:     pagination.NewNav(display.CurrentPage, display.TotalPages),
		Loading: display.Loading,
	}
}

// GoToPage selects a concrete page marker. It reports false when navigation is hidden
// or the page is out of range.
func (s *Session) GoToPage(n int) bool {
	nav, ok := s.catalogNav()
	if !ok || n > nav.Total {
		return false
	}
	page, ok := nav.Select(pagination.PageMarker(n))
	if !ok {
		return false
	}
	s.discovery.SetPage(page)
	return true
}

// PrevPage moves back one page; a no-op on the first page.
func (s *Session) PrevPage() bool {
	nav, ok := s.catalogNav()
	if !ok {
		return false
	}
	page, ok := nav.Prev()
	if !ok {
		return false
	}
	s.discovery.SetPage(page)
	return true
}

// NextPage moves forward one page; a no-op on the last page.
func (s *Session) NextPage() bool {
	nav, ok := s.catalogNav()
	if !ok {
		return false
	}
	page, ok := nav.Next()
	if !ok {
		return false
	}
	s.discovery.SetPage(page)
	return true
}

func (s *Session) catalogNav() (pagination.Nav, bool) {
	if s.similarity.State().Active {
		return pagination.Nav{}, false
	}
	return s.discovery.Nav(), true
}
