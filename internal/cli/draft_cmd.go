package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

type draftReport struct {
	Draft     drafting.Result          `json:"draft"`
	QA        drafting.QAResult        `json:"qa"`
	HardRules drafting.HardRulesResult `json:"hard_rules"`
}

func newDraftCmd(app *App) *cobra.Command {
	var (
		usage, templatesPath              string
		opts                              drafting.Options
		mode, stage, objective, intensity string
		asJSON                            bool
	)
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Build a draft from the template pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := chatterplan.ParseUsage(usage)
			if !ok {
				return fmt.Errorf("unknown usage %q", usage)
			}
			catalog, err := app.LoadTemplates(templatesPath)
			if err != nil {
				return err
			}
			pools, ok := catalog.Pools(u)
			if !ok {
				pools, _ = catalog.Pools(chatterplan.UsageExtraQuick)
			}

			opts.Pools = pools
			opts.Mode = drafting.ParseMode(mode)
			opts.Intensity = funnel.IntensityOrDefault(intensity)
			if s, ok := funnel.ParseStage(stage); ok {
				opts.Stage = s
			}
			if o, ok := funnel.NormalizeObjective(objective); ok {
				opts.Objective = o
			}

			draft := drafting.Build(opts)
			report := draftReport{
				Draft:     draft,
				QA:        drafting.ScoreDraft(draft.Text),
				HardRules: drafting.PassesHardRules(draft.Text),
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, report)
			}
			fmt.Fprintln(out, draft.Text)
			fmt.Fprintf(out, "qa=%d hard_rules_ok=%t", report.QA.Score, report.HardRules.OK)
			if draft.SafetyGate != drafting.GateNone {
				fmt.Fprintf(out, " safety_gate=%s", draft.SafetyGate)
			}
			fmt.Fprintln(out)
			for _, w := range report.QA.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "  warning: %s\n", w)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&usage, "usage", string(chatterplan.UsageExtraQuick), "Template usage tag")
	f.StringVar(&templatesPath, "templates", app.TemplatesPath, "YAML file layered over the default pools")
	f.StringVar(&opts.FanName, "name", "", "Fan first name")
	f.StringVar(&opts.LastFanMessage, "message", "", "Fan's last message")
	f.StringVar(&stage, "stage", "", "Funnel stage")
	f.StringVar(&objective, "objective", "", "Conversation objective")
	f.StringVar(&intensity, "intensity", "", "Intensity (LOW|MEDIUM|HIGH)")
	f.StringVar(&opts.OfferTitle, "offer-title", "", "Offer to weave in")
	f.StringVar(&opts.OfferTier, "offer-tier", "", "Offer tier label")
	f.IntVar(&opts.Variant, "variant", 0, "Variant number; bump for another combination")
	f.StringVar(&mode, "mode", string(drafting.ModeFull), "full or short")
	f.BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}
