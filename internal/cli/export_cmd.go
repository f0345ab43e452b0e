package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/export"
	"sisu-catalog/internal/sftpclient"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		outPath    string
		recordPath string
		upload     bool
	)

	cmd := &cobra.Command{
		Use:   "export <programme-id>",
		Short: "Write a programme's courses to CSV (or XML when --out ends in .xml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.resolveProgramme(ctx, args[0])
			if err != nil {
				return err
			}
			if recordPath != "" {
				rec, err := readRecord(recordPath)
				if err != nil {
					return err
				}
				rec.ApplyCompletion(p.AllCourseUnits())
			}

			if outPath == "" {
				outPath = safeFileName(string(p.Key())) + ".csv"
			}
			if err := writeExport(outPath, p); err != nil {
				return err
			}
			app.logger.Info("export written", "programme", p.Key(), "file", outPath)
			fmt.Fprintln(cmd.OutOrStdout(), outPath)

			if upload {
				remote := filepath.Base(outPath)
				if err := sftpclient.UploadFile(ctx, app.Config.SFTP(), outPath, remote); err != nil {
					return err
				}
				app.logger.Info("export uploaded", "file", remote, "dir", app.Config.SFTPDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output file (default <programme-id>.csv)")
	cmd.Flags().StringVar(&recordPath, "record", "", "user record JSON whose completed courses are marked")
	cmd.Flags().BoolVar(&upload, "sftp", false, "upload the file to SFTP_HOST:SFTP_DIR afterwards")
	return cmd
}

func writeExport(path string, p *domain.DegreeProgramme) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xml") {
		err = export.WriteProgrammeXML(f, p)
	} else {
		err = export.WriteCourseCSV(f, p)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
