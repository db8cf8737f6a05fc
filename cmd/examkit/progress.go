package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset checklist progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show [target]",
	Short: "Print a target's checklist, or a summary of all targets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, progress, err := openChecklist()
		if err != nil {
			return err
		}
		tmpl := templates.Template()

		if len(args) == 0 {
			targets := progress.Targets()
			if len(targets) == 0 {
				fmt.Println("No checklist progress recorded")
				return nil
			}
			for _, name := range targets {
				done, total := progress.Get(name, tmpl).Done()
				fmt.Printf("  %-32s %d/%d\n", name, done, total)
			}
			return nil
		}

		name := args[0]
		p := progress.Get(name, tmpl)
		for _, phase := range tmpl.Phases {
			fmt.Printf("%s\n", phase.Name)
			for i, task := range phase.Tasks {
				mark := " "
				if p[phase.Name][i] {
					mark = "x"
				}
				fmt.Printf("  [%s] %s\n", mark, task)
			}
		}
		done, total := p.Done()
		fmt.Printf("\n%s: %d/%d tasks complete\n", name, done, total)
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset <target>",
	Short: "Forget a target's checklist progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, progress, err := openChecklist()
		if err != nil {
			return err
		}
		removed, err := progress.Reset(args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("[*] No progress recorded for %s\n", args[0])
			return nil
		}
		log.WithField("target", args[0]).Info("checklist progress reset")
		fmt.Printf("[+] Reset progress for %s\n", args[0])
		return nil
	},
}

func init() {
	progressCmd.AddCommand(progressShowCmd, progressResetCmd)
	rootCmd.AddCommand(progressCmd)
}
