package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finitefield.org/catalog-client/internal/browser"
	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/discovery"
	"finitefield.org/catalog-client/internal/render"
	"finitefield.org/catalog-client/internal/similarity"
)

func newBrowseCmd(a *app) *cobra.Command {
	var (
		search string
		page   int
		facets = make(map[catalog.Facet]*string, len(catalog.Facets()))
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List a page of products, optionally filtered and searched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := discovery.New(a.client,
				discovery.WithLogger(a.logger),
				discovery.WithTimeout(a.cfg.API.Timeout),
				discovery.WithFallback(a.products),
			)
			defer d.Close()
			session := browser.NewSession(d, similarity.NewController(nil))

			changed := false
			for _, f := range catalog.Facets() {
				if v := *facets[f]; v != "" {
					d.SetFilter(f, v)
					changed = true
				}
			}
			if search != "" {
				d.SetSearch(search)
				changed = true
			}
			switch {
			case page > 1:
				d.SetPage(page)
			case !changed:
				d.Refresh()
			}

			if _, err := d.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.View(session.View(), d.Query()))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&search, "search", "", "free-text search")
	flags.IntVar(&page, "page", 1, "page number")
	for _, f := range catalog.Facets() {
		facets[f] = flags.String(string(f), "", fmt.Sprintf("filter by %s", f.Label()))
	}
	return cmd
}
