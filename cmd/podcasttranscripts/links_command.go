package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLinksCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		useFeed    bool
		useSitemap bool
	)

	cmd := &cobra.Command{
		Use:   "links",
		Short: "List episode links found on the podcast page or in the RSS feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if useFeed {
				items, err := ctx.feed().Items(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(items))
				for i, item := range items {
					if limit > 0 && i >= limit {
						break
					}
					published := ""
					if item.Published != nil {
						published = item.Published.Format("2006-01-02")
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), published, item.Title, item.URL})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Published", "Title", "URL"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			if useSitemap {
				urls, err := ctx.sitemap().URLs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for i, u := range urls {
					fmt.Fprintf(out, "%2d. %s\n", i+1, u)
				}
				fmt.Fprintf(out, "Found %d episode links in the sitemap\n", len(urls))
				return nil
			}

			links, err := ctx.podcastPage().Discover(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for i, u := range links.URLs {
				fmt.Fprintf(out, "%2d. %s\n", i+1, u)
			}
			fmt.Fprintf(out, "Found %d episode links on initial page load\n", len(links.URLs))
			for _, a := range links.ShowMore {
				fmt.Fprintf(out, "Show more control: text=%q href=%q onclick=%q\n", a.Text, a.Href, a.OnClick)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum links to list (0 for all)")
	cmd.Flags().BoolVar(&useFeed, "feed", false, "List RSS feed items instead of podcast page links")
	cmd.Flags().BoolVar(&useSitemap, "sitemap", false, "List episode links from the sitemap instead of the podcast page")
	cmd.MarkFlagsMutuallyExclusive("feed", "sitemap")
	return cmd
}
