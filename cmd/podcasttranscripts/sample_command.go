package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcast-transcripts/pkg/discovery"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Scrape the first few episodes into one combined file",
		Long: "Collects episode links from the WordPress API, falling back to the podcast page, " +
			"the sitemap and then the configured fallback URLs, and writes their transcripts to one file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = ctx.config.Scrape.SampleLimit
			}

			chain := discovery.NewChain(
				ctx.wordPress(),
				ctx.podcastPage(),
				ctx.sitemap(),
				discovery.StaticSource{Links: ctx.config.Discovery.FallbackURLs},
			)
			chain.SetLogger(ctx.logger.With("component", "discovery"))

			urls, source, err := chain.Resolve(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d episode URLs (%s):\n", len(urls), source)
			for i, u := range urls {
				fmt.Fprintf(out, "%2d. %s\n", i+1, u)
			}

			svc, closeSavers, err := ctx.serviceWithSavers(cmd.Context(), outputDir)
			if err != nil {
				return err
			}
			defer closeSavers()

			result, err := svc.ScrapeURLs(cmd.Context(), urls)
			if err != nil {
				return err
			}
			if result.Path != "" {
				fmt.Fprintf(out, "Saved combined transcripts to %s\n", result.Path)
			}
			fmt.Fprintf(out, "Successfully scraped %d/%d transcripts\n", result.Transcripts, result.Episodes)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 3, "Number of episodes to sample")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the combined file (default from config)")
	return cmd
}
