package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/spf13/cobra"
)

func (c *cli) reportCmd() *cobra.Command {
	var asOfFlag string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the last seven days of practice (the weekly report)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				asOf, err := parseAsOf(asOfFlag, app.clock)
				if err != nil {
					return err
				}
				r, err := app.review.WeeklyReport(ctx, asOf)
				if err != nil {
					return err
				}

				last := r.To.AddDate(0, 0, -1)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "period\t%s to %s\n", r.From.Format(domain.DateLayout), last.Format(domain.DateLayout))
				fmt.Fprintf(tw, "attempts\t%d\n", r.Attempts)
				fmt.Fprintf(tw, "correct\t%d\n", r.Correct)
				fmt.Fprintf(tw, "incorrect\t%d\n", r.Incorrect)
				fmt.Fprintf(tw, "accuracy\t%.0f%%\n", r.Accuracy*100)
				fmt.Fprintf(tw, "points practiced\t%d\n", r.PointsPracticed)
				fmt.Fprintf(tw, "mastered\t%d\n", r.Mastered)
				fmt.Fprintf(tw, "needs reinforcement\t%d\n", r.NeedsReinforcement)
				fmt.Fprintf(tw, "learning\t%d\n", r.Learning)
				fmt.Fprintf(tw, "untested\t%d\n", r.Untested)
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "last day of the report YYYY-MM-DD (default today)")
	return cmd
}
