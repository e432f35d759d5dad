// Package cli implements salesctl, which runs the engine core offline
// against flags, JSON files and the template pools.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/creator-sales-engine/internal/templates"
)

// App holds what the commands share.
type App struct {
	// LoadTemplates returns the catalog for a TEMPLATES_PATH-style file path.
	LoadTemplates func(path string) (templates.Catalog, error)
	// TemplatesPath is the default for draft --templates.
	TemplatesPath string
	Now           func() time.Time
	Location      *time.Location
}

// NewApp returns an App on the real clock and the embedded template defaults.
func NewApp() *App {
	return &App{
		LoadTemplates: templates.Load,
		Now:           func() time.Time { return time.Now().UTC() },
		Location:      time.UTC,
	}
}

// NewRootCmd creates the top-level "salesctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "salesctl",
		Short:         "Run the creator sales engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStageCmd(app),
		newPriorityCmd(app),
		newLadderCmd(app),
		newDraftCmd(app),
		newScoreCmd(app),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSONFile decodes path into dst; "-" reads stdin.
func readJSONFile(in io.Reader, path string, dst any) error {
	var r io.Reader = in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
