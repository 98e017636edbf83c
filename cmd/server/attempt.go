package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/service/session"
	"github.com/spf13/cobra"
)

func (c *cli) attemptCmd() *cobra.Command {
	var result, feedback, response, strategyType, strategy string
	cmd := &cobra.Command{
		Use:   "attempt KP_ID --result correct|incorrect",
		Short: "Record a review attempt and print the new schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := domain.ParseResult(result)
			if err != nil {
				return err
			}
			in := session.AttemptInput{
				KnowledgePointID: id,
				Result:           r,
				ParentFeedback:   feedback,
				AgentResponse:    response,
			}
			if strategy != "" || strategyType != "" {
				in.Strategy = &session.StrategyInput{StrategyType: strategyType, Content: strategy}
			}

			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				out, err := app.session.RecordAttempt(ctx, in)
				if err != nil {
					return err
				}
				kp := out.KnowledgePoint
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s, next review %s (streak %d)\n",
					kp.ID, out.PreviousLevel, kp.MasteryLevel, formatDate(kp.NextReviewDate), out.Streak)
				if out.Strategy != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "strategy %s recorded\n", out.Strategy.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "correct or incorrect")
	cmd.Flags().StringVar(&feedback, "feedback", "", "parent feedback")
	cmd.Flags().StringVar(&response, "response", "", "tutor response")
	cmd.Flags().StringVar(&strategyType, "strategy-type", "", "teaching strategy type, e.g. mnemonic")
	cmd.Flags().StringVar(&strategy, "strategy", "", "teaching strategy text")
	_ = cmd.MarkFlagRequired("result")
	cmd.MarkFlagsRequiredTogether("strategy-type", "strategy")
	return cmd
}

func (c *cli) suggestCmd() *cobra.Command {
	var strategyType string
	cmd := &cobra.Command{
		Use:   "suggest KP_ID",
		Short: "Ask the AI model for teaching-strategy text (not saved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, false, func(ctx context.Context, app *application) error {
				draft, err := app.session.SuggestStrategy(ctx, id, strategyType)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), draft.Content)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&strategyType, "type", "mnemonic", "strategy type")
	return cmd
}
