package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"podcast-transcripts/pkg/domain"
)

const countPreview = 10

func newCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count numbered episodes available through the WordPress API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.wordPress().Discover(cmd.Context())
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Posts examined: %d\n", res.PostsSeen)
			fmt.Fprintf(out, "Pages fetched:  %d (stopped: %s)\n", res.PagesFetched, res.Stop)
			fmt.Fprintf(out, "Total episodes: %d\n", len(res.Episodes))
			if len(res.Episodes) > 0 {
				fmt.Fprintf(out, "Range: %d to %d\n", res.Episodes[len(res.Episodes)-1].Number, res.Episodes[0].Number)
				writePreview(out, res.Episodes)
			}
			if err != nil {
				return fmt.Errorf("discovery stopped early: %w", err)
			}
			return nil
		},
	}
}

func writePreview(out io.Writer, episodes []domain.Episode) {
	first := episodes
	if len(first) > countPreview {
		first = first[:countPreview]
	}
	fmt.Fprintln(out, "\nFirst episodes:")
	fmt.Fprintln(out, renderEpisodes(first, 0))

	if len(episodes) > countPreview {
		start := len(episodes) - countPreview
		fmt.Fprintln(out, "\nLast episodes:")
		fmt.Fprintln(out, renderEpisodes(episodes[start:], start))
	}
}

func renderEpisodes(episodes []domain.Episode, offset int) string {
	rows := make([][]string, 0, len(episodes))
	for i, ep := range episodes {
		rows = append(rows, []string{strconv.Itoa(offset + i + 1), strconv.Itoa(ep.Number), ep.URL})
	}
	return renderTable([]string{"#", "Episode", "URL"}, rows, []columnAlignment{alignRight, alignRight, alignLeft})
}
