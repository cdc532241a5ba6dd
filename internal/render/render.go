// Package render draws catalog views as terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"finitefield.org/catalog-client/internal/browser"
	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/pagination"
	"finitefield.org/catalog-client/internal/similarity"
)

const (
	ruleWidth    = 72
	bannerFont   = "small"
	emptyCatalog = "No products found matching your filters."
	emptySimilar = "No similar products found."
)

// Theme holds the styles used by the renderer.
type Theme struct {
	Title    lipgloss.Style
	Dim      lipgloss.Style
	Notice   lipgloss.Style
	Warning  lipgloss.Style
	Current  lipgloss.Style
	Disabled lipgloss.Style
	Name     lipgloss.Style
}

// DefaultTheme is used when no theme is supplied.
var DefaultTheme = Theme{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
	Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")),
	Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B58900")),
	Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#DC322F")),
	Current:  lipgloss.NewStyle().Bold(true).Reverse(true),
	Disabled: lipgloss.NewStyle().Faint(true),
	Name:     lipgloss.NewStyle().Bold(true),
}

// Banner returns the ASCII art title.
func Banner(title string) string {
	return figure.NewFigure(title, bannerFont, true).String()
}

// View renders a full frame: header, notices, product grid and navigation.
func View(v browser.View, q catalog.Query) string {
	t := DefaultTheme
	var b strings.Builder

	title := fmt.Sprintf("Products (%d)", len(v.Items))
	if v.Mode == browser.ModeSimilarity {
		title = fmt.Sprintf("Similar Products (%d)", len(v.Items))
	}
	b.WriteString(t.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(t.Dim.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")

	if v.Mode == browser.ModeCatalog {
		if summary := FilterSummary(q); summary != "" {
			b.WriteString(t.Dim.Render(summary))
			b.WriteString("\n")
		}
		if v.Loading {
			b.WriteString(t.Dim.Render("Loading..."))
			b.WriteString("\n")
		}
		if v.Display.HasError() {
			b.WriteString(t.Notice.Render(v.Display.ErrorMessage))
			b.WriteString("\n")
		}
	}

	if len(v.Items) == 0 && !v.Loading {
		empty := emptyCatalog
		if v.Mode == browser.ModeSimilarity {
			empty = emptySimilar
		}
		b.WriteString(t.Dim.Render(empty))
		b.WriteString("\n")
	}
	for _, p := range v.Items {
		b.WriteString(ProductLine(p))
		b.WriteString("\n")
	}

	if nav := Nav(v.Nav); nav != "" {
		b.WriteString("\n")
		b.WriteString(nav)
		b.WriteString("\n")
	}
	return b.String()
}

// ProductLine renders one product as a single row.
func ProductLine(p catalog.Product) string {
	t := DefaultTheme
	name := p.DisplayName
	if name == "" {
		name = "Unnamed product"
	}
	attrs := make([]string, 0, 4)
	for _, v := range []string{p.ArticleType, p.Gender, p.Season, p.BaseColour} {
		if v != "" {
			attrs = append(attrs, v)
		}
	}
	line := fmt.Sprintf("%-6s %s", p.ID, t.Name.Render(name))
	if len(attrs) > 0 {
		line += "  " + t.Dim.Render(strings.Join(attrs, " · "))
	}
	if p.Price != nil {
		line += "  " + Price(*p.Price)
	}
	return line
}

// Nav renders the pagination controls, or nothing when they are hidden.
func Nav(n pagination.Nav) string {
	if !n.Visible() {
		return ""
	}
	t := DefaultTheme
	parts := make([]string, 0, 11)

	prev := "< Prev"
	if n.PrevEnabled() {
		parts = append(parts, prev)
	} else {
		parts = append(parts, t.Disabled.Render(prev))
	}
	for _, m := range n.Markers() {
		switch {
		case m.Ellipsis:
			parts = append(parts, t.Dim.Render(m.String()))
		case m.Page == n.Current:
			parts = append(parts, t.Current.Render("["+m.String()+"]"))
		default:
			parts = append(parts, m.String())
		}
	}
	next := "Next >"
	if n.NextEnabled() {
		parts = append(parts, next)
	} else {
		parts = append(parts, t.Disabled.Render(next))
	}
	return strings.Join(parts, " ")
}

// FilterSummary describes the active search and facet constraints.
func FilterSummary(q catalog.Query) string {
	var parts []string
	if q.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.SearchText))
	}
	if q.HasActiveFilters() {
		for _, f := range q.Filters.Active() {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Label(), q.Filters.Get(f)))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filters: " + strings.Join(parts, ", ")
}

// Detail renders a product with its recommendations.
func Detail(p catalog.Product, rec similarity.Recommendation) string {
	t := DefaultTheme
	var b strings.Builder

	b.WriteString(t.Title.Render(p.DisplayName))
	b.WriteString("\n")
	b.WriteString(t.Dim.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")
	for _, row := range [][2]string{
		{"Category", p.MasterCategory},
		{"Subcategory", p.SubCategory},
		{"Article Type", p.ArticleType},
		{"Gender", p.Gender},
		{"Colour", p.BaseColour},
		{"Season", p.Season},
		{"Usage", p.Usage},
		{"Image", p.ImageSrc()},
	} {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%-13s %s\n", row[0]+":", row[1])
	}

	b.WriteString("\n")
	b.WriteString(t.Title.Render("You may also like"))
	b.WriteString("\n")
	if rec.Warning != "" {
		b.WriteString(t.Warning.Render(rec.Warning))
		b.WriteString("\n")
	}
	if len(rec.Items) == 0 {
		b.WriteString(t.Dim.Render(emptySimilar))
		b.WriteString("\n")
	}
	for _, item := range rec.Items {
		b.WriteString(ProductLine(item))
		b.WriteString("\n")
	}
	return b.String()
}
