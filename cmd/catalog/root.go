package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/catalogapi"
	"finitefield.org/catalog-client/internal/fallback"
	"finitefield.org/catalog-client/internal/imageref"
	"finitefield.org/catalog-client/internal/platform/config"
	"finitefield.org/catalog-client/internal/platform/observability"
	"finitefield.org/catalog-client/internal/render"
)

type rootOptions struct {
	envFile  string
	apiURL   string
	logLevel string
	noBanner bool
}

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *catalogapi.Client
	locator  imageref.Locator
	products []catalog.Product
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Browse the product catalog and find similar products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(opts); err != nil {
				return err
			}
			if !opts.noBanner {
				fmt.Fprint(cmd.OutOrStdout(), render.Banner("Catalog"))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with local overrides")
	flags.StringVar(&opts.apiURL, "api-url", "", "catalog service base URL (overrides CATALOG_API_BASE_URL)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flags.BoolVar(&opts.noBanner, "no-banner", false, "skip the ASCII banner")

	root.AddCommand(
		newBrowseCmd(a),
		newSimilarCmd(a),
		newRecommendCmd(a),
	)
	return root
}

func (a *app) init(opts *rootOptions) error {
	overrides := map[string]string{}
	if opts.apiURL != "" {
		overrides["CATALOG_API_BASE_URL"] = opts.apiURL
	}
	if opts.logLevel != "" {
		overrides["LOG_LEVEL"] = opts.logLevel
	}
	cfg, err := config.Load(config.WithEnvFile(opts.envFile), config.WithEnvMap(overrides))
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	logger = logger.Named("catalog")

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	client, err := catalogapi.New(cfg.API.BaseURL, httpClient, catalogapi.WithLogger(logger))
	if err != nil {
		return err
	}

	locator, err := imageref.New(cfg.Images)
	if err != nil {
		return err
	}

	products, err := fallback.LoadDatasetFile(cfg.Catalog.FallbackFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.client = client
	a.locator = locator
	a.products = products
	return nil
}
