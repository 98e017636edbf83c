package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errProjectionMismatch = errors.New("stored schedule does not match history")

func (c *cli) verifyCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "verify [KP_ID ...]",
		Short: "Replay history and check each stored schedule against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID == "" && len(args) == 0 {
				return errors.New("give knowledge point IDs or --task")
			}
			var ids []uuid.UUID
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			var task uuid.UUID
			if taskID != "" {
				id, err := parseID(taskID)
				if err != nil {
					return err
				}
				task = id
			}

			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				if task != uuid.Nil {
					kps, err := app.review.ReviewsForTask(ctx, task)
					if err != nil {
						return err
					}
					for _, kp := range kps {
						ids = append(ids, kp.ID)
					}
				}

				out := cmd.OutOrStdout()
				mismatches := 0
				for _, id := range ids {
					p, err := app.session.VerifyProjection(ctx, id)
					if err != nil {
						return err
					}
					if p.Consistent() {
						fmt.Fprintf(out, "%s ok\n", id)
						continue
					}
					mismatches++
					fmt.Fprintf(out, "%s MISMATCH stored=%s/%s/%d/%d replayed=%s/%s/%d/%d\n", id,
						p.StoredLevel, formatDate(p.StoredNextReview), p.StoredCorrectCount, p.StoredErrorCount,
						p.ReplayedLevel, formatDate(p.ReplayedNextReview), p.HistoryCorrect, p.HistoryIncorrect)
				}
				if mismatches > 0 {
					return fmt.Errorf("%w: %d of %d", errProjectionMismatch, mismatches, len(ids))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "verify every knowledge point of this task")
	return cmd
}
