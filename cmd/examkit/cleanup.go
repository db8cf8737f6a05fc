package main

import (
	"errors"
	"fmt"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/storage"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove exam hosts entries and stop ingress servers",
	Long: `Removes every "*.<exam suffix>" name from the hosts file (a backup is taken
first) and stops any ingress server this tool started. Evidence directories are never
deleted.

--include-single also removes "*.<single suffix>" names. --target removes just one
target's name instead of the whole suffix.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().Bool("include-single", false, "also remove single-target names")
	cleanupCmd.Flags().String("target", "", "remove only this target's name")
	cleanupCmd.Flags().Bool("keep-ingress", false, "leave ingress servers running")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	includeSingle, _ := cmd.Flags().GetBool("include-single")
	target, _ := cmd.Flags().GetString("target")
	keepIngress, _ := cmd.Flags().GetBool("keep-ingress")

	suffixes := []string{cfg.Domains.Exam}
	if includeSingle {
		suffixes = append(suffixes, cfg.Domains.Single)
	}

	registry := newRegistry()
	var errs []error

	var removed int
	var err error
	if target != "" {
		for _, suffix := range suffixes {
			n, rerr := registry.RemoveByFqdn(target, suffix)
			removed += n
			err = errors.Join(err, rerr)
		}
	} else {
		removed, err = registry.RemoveAll(suffixes)
	}
	if err != nil {
		fmt.Printf("[!] Hosts file not updated: %v\n", err)
		log.WithError(err).WithField("kind", failure.KindOf(err)).Error("hosts cleanup failed")
		errs = append(errs, err)
	} else {
		fmt.Printf("[+] Removed %d hosts entr%s from %s\n", removed, plural(removed, "y", "ies"), registry.Path())
	}

	if !keepIngress {
		if err := stopIngress(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func stopIngress() error {
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	launcher, err := newLauncher(store)
	if err != nil {
		return err
	}
	report, err := launcher.StopAll()
	if err != nil {
		return err
	}
	if len(report.Stopped) == 0 && len(report.Failed) == 0 {
		fmt.Println("[*] No ingress server found")
	}
	for _, pid := range report.Stopped {
		fmt.Printf("[+] Stopped ingress server (pid %d)\n", pid)
	}
	if err := report.Err(); err != nil {
		fmt.Printf("[!] %v\n", err)
		return err
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
