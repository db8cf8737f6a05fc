package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hakim/examkit/internal/preflight"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check privileges, the hosts file and external tools",
	Long: `Verify the machine is ready for a deployment: root privilege, a writable
hosts file, the shared wordlist, and the usual exam toolbox on PATH. Prints
installation hints for anything missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		systemChecks := preflight.CheckSystem(preflight.Host{
			Fs:          osFs,
			HostsPath:   cfg.Hosts.Path,
			Wordlist:    cfg.Deploy.Wordlist,
			RequireRoot: cfg.RequireRoot,
		})
		results := preflight.CheckTools(preflight.DefaultTools())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Check\tStatus\tDetail")
		fmt.Fprintln(w, "-----\t------\t------")

		failed := 0
		for _, c := range systemChecks {
			status := "[+]"
			if !c.OK {
				status = "[-]"
				if c.Required {
					failed++
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, status, c.Detail)
		}
		w.Flush()
		fmt.Println()

		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Tool\tStatus\tVersion\tPurpose")
		fmt.Fprintln(w, "----\t------\t-------\t-------")

		foundCount := 0
		requiredMissing := 0
		for _, result := range results {
			status := "[-]"
			version := "-"
			if result.Found {
				status = "[+]"
				foundCount++
				if result.Version != "" && result.Version != "unknown" {
					version = result.Version
				}
			} else if result.Tool.Required {
				requiredMissing++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Tool.Name, status, version, result.Tool.Purpose)
		}
		w.Flush()

		fmt.Println()
		missingTools := false
		for _, result := range results {
			if result.Found {
				continue
			}
			if !missingTools {
				fmt.Println("Missing tools:")
				missingTools = true
			}
			required := ""
			if result.Tool.Required {
				required = " (REQUIRED)"
			}
			fmt.Printf("  %s%s\n    Install: %s\n", result.Tool.Name, required, result.Tool.InstallCmd)
		}

		fmt.Println()
		fmt.Printf("Summary: %d/%d tools found", foundCount, len(results))
		if requiredMissing > 0 {
			fmt.Printf(", %d required tools missing", requiredMissing)
		}
		if failed > 0 {
			fmt.Printf(", %d system checks failed", failed)
		}
		fmt.Println()

		if requiredMissing > 0 || failed > 0 {
			return fmt.Errorf("environment is not ready")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
