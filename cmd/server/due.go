package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/spf13/cobra"
)

func (c *cli) dueCmd() *cobra.Command {
	var asOfFlag string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List knowledge points due for review (the daily plan)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				asOf, err := parseAsOf(asOfFlag, app.clock)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				n := 0
				for kp, err := range app.review.Due(ctx, asOf) {
					if err != nil {
						return err
					}
					if n == 0 {
						fmt.Fprintln(tw, "ID\tDUE\tLEVEL\tCONTENT")
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						kp.ID, formatDate(kp.NextReviewDate), kp.MasteryLevel, kp.Content)
					n++
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "%d due on %s\n", n, domain.DateOf(asOf).Format(domain.DateLayout))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "review date YYYY-MM-DD (default today)")
	return cmd
}
