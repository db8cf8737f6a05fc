package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/hakim/examkit/internal/diff"
	"github.com/hakim/examkit/internal/report"
	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Inspect the names examkit registered in the hosts file",
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered exam and single-target names",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := newRegistry()
		lines, err := registry.Entries()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Hostname\tIP\tSuffix")
		fmt.Fprintln(w, "--------\t--\t------")
		count := 0
		for _, suffix := range cfg.Suffixes() {
			bindings := diff.Bindings(lines, suffix)
			for _, host := range sortedKeys(bindings) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", host, bindings[host], suffix)
				count++
			}
		}
		w.Flush()
		fmt.Printf("\nTotal: %d name(s) in %s\n", count, registry.Path())
		return nil
	},
}

var hostsBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List retained hosts-file snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		backups, err := newRegistry().Backups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("No hosts backups found")
			return nil
		}
		for i, b := range backups {
			fmt.Printf("  %d  %s\n", i+1, b)
		}
		return nil
	},
}

var hostsDiffCmd = &cobra.Command{
	Use:   "diff [backup]",
	Short: "Show what changed since a snapshot (default: the newest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		out, _ := cmd.Flags().GetString("out")

		registry := newRegistry()
		var backup string
		if len(args) == 1 {
			backup = args[0]
		} else {
			backups, err := registry.Backups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Println("No hosts backups found")
				return nil
			}
			backup = backups[0]
		}

		previous, err := registry.ReadSnapshot(backup)
		if err != nil {
			return err
		}
		current, err := registry.Entries()
		if err != nil {
			return err
		}

		suffix := cfg.Domains.Exam
		if all {
			suffix = ""
		}
		rendered := report.RenderHostsDiff(diff.Compare(current, previous, suffix), filepath.Base(backup), time.Now())

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

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	hostsDiffCmd.Flags().Bool("all", false, "compare every name, not just the exam suffix")
	hostsDiffCmd.Flags().String("out", "", "write the markdown report to a file")
	hostsCmd.AddCommand(hostsListCmd, hostsBackupsCmd, hostsDiffCmd)
	rootCmd.AddCommand(hostsCmd)
}
