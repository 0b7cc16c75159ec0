package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podcast-transcripts/pkg/scraperservice"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var (
		batchSize  int
		startBatch int
		maxBatches int
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Discover every episode and write transcripts in range-named batch files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			opts := scraperservice.Options{
				BatchSize:  cfg.Scrape.BatchSize,
				StartBatch: cfg.Scrape.StartBatch,
				MaxBatches: cfg.Scrape.MaxBatches,
			}
			if cmd.Flags().Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if cmd.Flags().Changed("start-batch") {
				opts.StartBatch = startBatch
			}
			if cmd.Flags().Changed("max-batches") {
				opts.MaxBatches = maxBatches
			}

			svc, closeSavers, err := ctx.serviceWithSavers(cmd.Context(), outputDir)
			if err != nil {
				return err
			}
			defer closeSavers()

			summary, err := svc.ScrapeBatches(cmd.Context(), opts)
			if len(summary.Batches) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderBatchSummary(summary))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully processed %d/%d batches\n", summary.Written(), summary.TotalBatches)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 20, "Episodes per batch")
	cmd.Flags().IntVar(&startBatch, "start-batch", 1, "First batch to process (1-based)")
	cmd.Flags().IntVar(&maxBatches, "max-batches", 0, "Maximum batches to process (0 for all)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for batch files (default from config)")
	return cmd
}

func renderBatchSummary(s scraperservice.Summary) string {
	rows := make([][]string, 0, len(s.Batches))
	for _, b := range s.Batches {
		status := b.Path
		switch {
		case b.Err != nil:
			status = "error: " + b.Err.Error()
		case b.Path == "":
			status = "nothing saved"
		}
		rows = append(rows, []string{
			strconv.Itoa(b.Number),
			strconv.Itoa(b.Episodes),
			strconv.Itoa(b.Transcripts),
			status,
		})
	}
	return renderTable(
		[]string{"Batch", "Episodes", "Transcripts", "File"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	)
}
