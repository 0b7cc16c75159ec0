package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podcast-transcripts/pkg/discovery"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var endpoints []string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Try common API endpoints and report which ones serve data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := discovery.Probe(cmd.Context(), ctx.probeClient(), ctx.config.SiteURL, endpoints,
				ctx.logger.With("component", "probe"))

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "-"
				if r.StatusCode != 0 {
					status = strconv.Itoa(r.StatusCode)
				}
				kind := "-"
				switch {
				case r.JSON:
					kind = "JSON"
				case r.OK:
					kind = "not JSON"
				case r.Err != nil && r.StatusCode == 0:
					kind = truncate(r.Err.Error(), 60)
				}
				items := ""
				if r.JSON {
					items = strconv.Itoa(r.Items)
				}
				rows = append(rows, []string{r.URL, status, kind, items})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Endpoint", "Status", "Response", "Items"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
			))
			return err
		},
	}

	cmd.Flags().StringSliceVar(&endpoints, "endpoint", nil, "Endpoint path to probe (repeatable, default: common API paths)")
	return cmd
}
