package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/service/lifecycle"
	"github.com/phrazzld/mastery/internal/store"
	"github.com/spf13/cobra"
)

func (c *cli) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect and complete tasks",
	}
	cmd.AddCommand(
		c.taskCreateCmd(),
		c.taskListCmd(),
		c.taskShowCmd(),
		c.taskAddPointsCmd(),
		c.taskCompleteCmd(),
	)
	return cmd
}

func (c *cli) taskCreateCmd() *cobra.Command {
	var subject, title, content, targetDate, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := domain.ParseSubject(subject)
			if err != nil {
				return err
			}
			in := lifecycle.NewTask{Subject: s, Title: title, Content: content, Notes: notes}
			if targetDate != "" {
				d, err := domain.ParseDate(targetDate)
				if err != nil {
					return fmt.Errorf("invalid --target-date %q: expected YYYY-MM-DD", targetDate)
				}
				in.TargetDate = &d
			}

			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				task, err := app.lifecycle.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "language-arts, mathematics or foreign-language")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&content, "content", "", "task content")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "target date YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) taskListCmd() *cobra.Command {
	var subject, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter store.TaskFilter
			if subject != "" {
				s, err := domain.ParseSubject(subject)
				if err != nil {
					return err
				}
				filter.Subject = &s
			}
			if status != "" {
				st, err := domain.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &st
			}

			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				tasks, err := app.lifecycle.ListTasks(ctx, filter)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSUBJECT\tSTATUS\tTITLE")
				for _, t := range tasks {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Subject, t.Status, t.Title)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "only tasks of this subject")
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status (in-progress, completed)")
	return cmd
}

func (c *cli) taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show a task and its knowledge points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				task, err := app.lifecycle.GetTask(ctx, id)
				if err != nil {
					return err
				}
				kps, err := app.review.ReviewsForTask(ctx, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s [%s] %s (%s)\n", task.ID, task.Subject, task.Title, task.Status)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLEVEL\tNEXT\tCORRECT\tERRORS\tCONTENT")
				for _, kp := range kps {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
						kp.ID, kp.MasteryLevel, formatDate(kp.NextReviewDate),
						kp.CorrectCount, kp.ErrorCount, kp.Content)
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) taskAddPointsCmd() *cobra.Command {
	var points []string
	var kind string
	cmd := &cobra.Command{
		Use:   "add-points TASK_ID --point CONTENT [--point CONTENT ...]",
		Short: "Attach knowledge points to a task and print their IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := make([]lifecycle.NewKnowledgePoint, len(points))
			for i, p := range points {
				in[i] = lifecycle.NewKnowledgePoint{Content: p, Type: kind}
			}

			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				kps, err := app.lifecycle.AttachKnowledgePoints(ctx, id, in)
				if err != nil {
					return err
				}
				for _, kp := range kps {
					fmt.Fprintln(cmd.OutOrStdout(), kp.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&points, "point", nil, "knowledge point content (repeatable)")
	cmd.Flags().StringVar(&kind, "type", "", "type tag for every point, e.g. vocabulary or formula")
	_ = cmd.MarkFlagRequired("point")
	return cmd
}

func (c *cli) taskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete TASK_ID",
		Short: "Mark a task completed once every knowledge point is mastered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				changed, err := app.lifecycle.MarkTaskCompleted(ctx, id)
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintln(cmd.OutOrStdout(), "completed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "already completed")
				}
				return nil
			})
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid ID %q", raw)
	}
	return id, nil
}
