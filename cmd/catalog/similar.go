package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"finitefield.org/catalog-client/internal/browser"
	"finitefield.org/catalog-client/internal/discovery"
	"finitefield.org/catalog-client/internal/render"
	"finitefield.org/catalog-client/internal/similarity"
)

func newSimilarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "similar <image-file>",
		Short: "Find products that look like an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("similar: read image: %w", err)
			}

			d := discovery.New(a.client, discovery.WithLogger(a.logger), discovery.WithFallback(a.products))
			defer d.Close()
			controller := similarity.NewController(nil)
			session := browser.NewSession(d, controller)
			uploader := similarity.NewUploader(a.client, controller, a.logger)

			if err := uploader.Select(filepath.Base(args[0]), data); err != nil {
				return fmt.Errorf("similar: %s", uploader.State().Error)
			}
			if err := uploader.FindSimilar(cmd.Context()); err != nil {
				return fmt.Errorf("similar: %s", uploader.State().Error)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.View(session.View(), d.Query()))
			return nil
		},
	}
}
