package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

func newStageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Inspect the funnel auto-advance rules",
	}
	cmd.AddCommand(newStageNextCmd(), newStageRulesCmd())
	return cmd
}

func newStageNextCmd() *cobra.Command {
	var (
		stage  string
		action string
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show where an action key moves a fan",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, ok := funnel.ParseStage(stage)
			if !ok {
				return fmt.Errorf("unknown stage %q", stage)
			}
			out := cmd.OutOrStdout()
			next, ok := funnel.NextStage(current, action)
			if !ok {
				fmt.Fprintf(out, "%s: no rule matched %q\n", current, action)
				return nil
			}
			fmt.Fprintf(out, "%s -> %s (%s)\n", current, next, funnel.MatchingRule(current, action))
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Current stage (e.g. NEW, warm-up)")
	cmd.Flags().StringVar(&action, "action", "", "Action key (e.g. intent:bienvenida)")
	_ = cmd.MarkFlagRequired("stage")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func newStageRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the auto-advance rules in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, rule := range funnel.Rules() {
				fmt.Fprintf(out, "%-28s %s\n", rule.Name, rule.To)
			}
			return nil
		},
	}
}
