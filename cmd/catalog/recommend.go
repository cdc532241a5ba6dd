package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/render"
	"finitefield.org/catalog-client/internal/similarity"
)

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <product-id>",
		Short: "Show a product with recommendations based on its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := lookupProduct(a.products, args[0])
			rec := similarity.NewRecommender(a.client, a.locator, a.logger).Recommend(cmd.Context(), product)
			fmt.Fprint(cmd.OutOrStdout(), render.Detail(product, rec))
			return nil
		},
	}
}

// lookupProduct finds a known product by id, or describes an unknown one by id alone.
func lookupProduct(products []catalog.Product, id string) catalog.Product {
	id = strings.TrimSpace(id)
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	return catalog.Product{ID: id, DisplayName: "Product " + id}
}
