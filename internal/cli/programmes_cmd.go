package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sisu-catalog/internal/export"
	"sisu-catalog/internal/userrecord"
)

func newProgrammesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "programmes",
		Short: "List every degree programme, sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			programmes := engine.Programmes()

			if app.format == formatJSON {
				out := make([]export.SummaryView, 0, len(programmes))
				for _, p := range programmes {
					out = append(out, export.Summary(p))
				}
				return export.WriteJSON(cmd.OutOrStdout(), out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range programmes {
				fmt.Fprintf(tw, "%s\t%s\n", p.Key(), p.Info().String())
			}
			return tw.Flush()
		},
	}
}

func newTreeCmd(app *App) *cobra.Command {
	var recordPath string

	cmd := &cobra.Command{
		Use:   "tree <programme-id>",
		Short: "Resolve a programme and print its module tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.resolveProgramme(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if recordPath != "" {
				rec, err := readRecord(recordPath)
				if err != nil {
					return err
				}
				n := rec.ApplyCompletion(p.AllCourseUnits())
				app.logger.Debug("completion applied", "programme", p.Key(), "count", n)
			}

			if app.format == formatJSON {
				return export.WriteJSON(cmd.OutOrStdout(), export.NewProgrammeView(p))
			}
			return export.WriteTree(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&recordPath, "record", "", "user record JSON whose completed courses are marked")
	return cmd
}

func readRecord(path string) (*userrecord.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record: %w", err)
	}
	defer f.Close()
	return userrecord.Decode(f)
}
