package cli

import (
	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

type ladderReport struct {
	Ladder  ladder.LadderStatus `json:"ladder"`
	Session ladder.SessionToday `json:"session_today"`
}

func newLadderCmd(app *App) *cobra.Command {
	var purchasesPath, catalogPath string
	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Show a fan's extras ladder from a purchase history file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var purchases []ladder.Purchase
			if err := readJSONFile(cmd.InOrStdin(), purchasesPath, &purchases); err != nil {
				return err
			}
			var catalog []ladder.CatalogItem
			if catalogPath != "" {
				if err := readJSONFile(cmd.InOrStdin(), catalogPath, &catalog); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), ladderReport{
				Ladder:  ladder.Status(purchases, catalog),
				Session: ladder.ExtrasToday(purchases, app.Now(), app.Location),
			})
		},
	}
	cmd.Flags().StringVar(&purchasesPath, "purchases", "-", "JSON array of purchases ('-' for stdin)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON array of catalog items")
	return cmd
}
