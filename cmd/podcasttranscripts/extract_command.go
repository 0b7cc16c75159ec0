package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		save      bool
		outputDir string
		preview   int
	)

	cmd := &cobra.Command{
		Use:   "extract URL...",
		Short: "Extract transcripts from episode pages and report what was found",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errNoArgs
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if save {
				svc, closeSavers, err := ctx.serviceWithSavers(cmd.Context(), outputDir)
				if err != nil {
					return err
				}
				defer closeSavers()

				result, err := svc.ScrapeURLs(cmd.Context(), args)
				if err != nil {
					return err
				}
				if result.Path == "" {
					fmt.Fprintln(out, "No transcripts to save")
					return nil
				}
				fmt.Fprintf(out, "Saved %d/%d transcripts to %s\n", result.Transcripts, result.Episodes, result.Path)
				return nil
			}

			svc := ctx.service(outputDir)
			rows := make([][]string, 0, len(args))
			for _, u := range args {
				record, err := svc.ScrapeEpisode(cmd.Context(), u)
				if err != nil {
					if cmd.Context().Err() != nil {
						return cmd.Context().Err()
					}
					rows = append(rows, []string{u, "", "", "0", "error: " + err.Error()})
					continue
				}

				number := "UNKNOWN"
				if record.HasNumber {
					number = strconv.Itoa(record.Number)
				}
				rows = append(rows, []string{u, number, record.Method, strconv.Itoa(len(record.Text)), record.Title})
				if preview > 0 && record.Text != "" {
					fmt.Fprintf(out, "\n%s\n%s\n", u, truncate(record.Text, preview))
				}
			}

			fmt.Fprintln(out, renderTable(
				[]string{"URL", "Episode", "Method", "Chars", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the transcripts to one combined file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the combined file (default from config)")
	cmd.Flags().IntVar(&preview, "preview", 0, "Print the first N characters of each transcript")
	return cmd
}
