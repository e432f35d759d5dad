package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/priority"
)

func newPriorityCmd(app *App) *cobra.Command {
	var (
		stage, objective, intensity string
		incomingAgo, outgoingAgo    time.Duration
		spent7d, spent30d           float64
		flags                       priority.Flags
	)
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Score how urgently a fan needs a reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.Now()
			in := priority.Input{
				Now:       now,
				Spent7d:   spent7d,
				Spent30d:  spent30d,
				Intensity: funnel.IntensityOrDefault(intensity),
				Flags:     flags,
			}
			if stage != "" {
				s, ok := funnel.ParseStage(stage)
				if !ok {
					return fmt.Errorf("unknown stage %q", stage)
				}
				in.Stage = s
			}
			if objective != "" {
				o, ok := funnel.NormalizeObjective(objective)
				if !ok {
					return fmt.Errorf("invalid objective %q", objective)
				}
				in.Objective = o
			}
			if cmd.Flags().Changed("incoming-ago") {
				t := now.Add(-incomingAgo)
				in.LastIncomingAt = &t
			}
			if cmd.Flags().Changed("outgoing-ago") {
				t := now.Add(-outgoingAgo)
				in.LastOutgoingAt = &t
			}
			return printJSON(cmd.OutOrStdout(), priority.Breakdown(in))
		},
	}
	f := cmd.Flags()
	f.StringVar(&stage, "stage", "", "Funnel stage")
	f.StringVar(&objective, "objective", "", "Conversation objective")
	f.StringVar(&intensity, "intensity", "", "Intensity (LOW|MEDIUM|HIGH), defaults to MEDIUM")
	f.DurationVar(&incomingAgo, "incoming-ago", 0, "Time since the fan's last message")
	f.DurationVar(&outgoingAgo, "outgoing-ago", 0, "Time since the creator's last reply")
	f.Float64Var(&spent7d, "spent-7d", 0, "Spend in the last 7 days")
	f.Float64Var(&spent30d, "spent-30d", 0, "Spend in the last 30 days")
	f.BoolVar(&flags.VIP, "vip", false, "Fan is VIP")
	f.BoolVar(&flags.Expired, "expired", false, "Fan's subscription expired")
	f.BoolVar(&flags.AtRisk, "at-risk", false, "Fan is at risk of churning")
	f.BoolVar(&flags.IsNew, "new", false, "Fan is new")
	return cmd
}
