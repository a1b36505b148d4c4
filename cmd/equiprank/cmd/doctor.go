package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	rerrors "github.com/equiprank/equiprank/internal/errors"
	"github.com/equiprank/equiprank/internal/preflight"
	"github.com/equiprank/equiprank/internal/ui"
)

// newDoctorCmd creates the doctor command: preflight checks for the
// corpus, snapshot, and providers.
func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the corpus, snapshot, and providers are usable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			results := preflight.Run(cmd.Context(), cfg)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				styles := ui.GetStyles(!ui.UseColor(out, noColor))
				for _, r := range results {
					status := r.Status.String()
					switch r.Status {
					case preflight.StatusWarn:
						status = styles.Warning.Render(status)
					case preflight.StatusFail:
						status = styles.Error.Render(status)
					default:
						status = styles.Score.Render(status)
					}
					fmt.Fprintf(out, "%s  %-10s %s\n", status, r.Name, r.Message)
				}
			}

			if !preflight.Healthy(results) {
				return rerrors.New(rerrors.ErrCodeConfigInvalid, "preflight checks failed", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output check results as JSON")
	return cmd
}
