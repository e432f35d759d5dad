package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/drafting"
)

type scoreReport struct {
	QA        drafting.QAResult        `json:"qa"`
	HardRules drafting.HardRulesResult `json:"hard_rules"`
}

func newScoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "score [text]",
		Short: "Grade a draft text; reads stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return errors.New("no text to score")
			}
			return printJSON(cmd.OutOrStdout(), scoreReport{
				QA:        drafting.ScoreDraft(text),
				HardRules: drafting.PassesHardRules(text),
			})
		},
	}
}
