package main

import (
	"fmt"
	"time"

	"github.com/hakim/examkit/internal/dashboard"
	"github.com/hakim/examkit/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a markdown checklist progress report",
	Long: `Renders every provisioned system's checklist, grouped by category, as
markdown. Prints to stdout unless --out is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		builder := newCatalog()
		templates, progress, err := openChecklist()
		if err != nil {
			return err
		}
		tmpl := templates.Template()

		var systems []report.SystemProgress
		for _, c := range dashboard.Categories {
			names, err := builder.ListTargets(c)
			if err != nil {
				return err
			}
			for _, name := range names {
				systems = append(systems, report.SystemProgress{
					Category: string(c),
					Name:     name,
					Progress: progress.Get(name, tmpl),
				})
			}
		}

		rendered := report.RenderProgress(systems, tmpl, time.Now())
		if out == "" {
			fmt.Print(rendered)
			return nil
		}
		if err := report.WriteFile(osFs, out, rendered); err != nil {
			return err
		}
		fmt.Printf("[+] Wrote %s\n", out)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("out", "", "output file")
	rootCmd.AddCommand(reportCmd)
}
