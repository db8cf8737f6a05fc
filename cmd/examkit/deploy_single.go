package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/storage"
	"github.com/hakim/examkit/internal/workspace"
	"github.com/spf13/cobra"
)

var deploySingleCmd = &cobra.Command{
	Use:   "deploy-single <name>",
	Short: "Provision one ad-hoc lab target",
	Long: `Creates "<root>/<name>_<ip>" with the evidence skeleton, registers
"<name>.<single suffix>" in the hosts file, and starts an ingress server on the
target's own ingress directory.

If a directory for <name> already exists nothing is changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploySingle,
}

func init() {
	deploySingleCmd.Flags().String("root", "", "parent directory (default: single_root from config)")
	rootCmd.AddCommand(deploySingleCmd)
}

func runDeploySingle(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	root, _ := cmd.Flags().GetString("root")

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	launcher, err := newLauncher(store)
	if err != nil {
		return err
	}
	builder, err := newBuilder(newRegistry(), launcher)
	if err != nil {
		return err
	}

	started := time.Now()
	prompter := workspace.NewLinePrompter(os.Stdin, os.Stdout)
	res, err := builder.BuildSingle(args[0], root, prompter)
	if err != nil {
		if failure.Is(err, failure.Validation) {
			fmt.Printf("[!] %v\n", err)
		}
		return err
	}
	if res.Existed {
		fmt.Printf("[*] Directory %s already exists. Skipping setup.\n", res.Path)
		return nil
	}

	deployment := storage.NewDeployment(models.KindSingle, res.Path)
	deployment.StartedAt = started
	deployment.Targets = []models.Target{res.Target}
	var alreadyServing bool
	res.Errors, alreadyServing = withoutPortInUse(res.Errors)
	failures := map[string]error{}
	if err := res.Err(); err != nil {
		failures[res.Target.Name] = err
	}
	status := finishDeployment(store, deployment, 1, failures)

	fmt.Printf("[+] %s -> %s\n", res.Target.FQDN(), res.Target.IP)
	fmt.Printf("[+] Workspace: %s\n", res.Path)
	if res.IngressPID != 0 {
		fmt.Printf("[+] Ingress server (pid %d) on port %d\n", res.IngressPID, cfg.Ingress.SinglePort)
	}
	if alreadyServing {
		fmt.Printf("[*] Ingress already serving on port %d\n", cfg.Ingress.SinglePort)
	}
	printFailures(failures)
	fmt.Printf("[*] Deployment %s finished: %s\n", shortID(deployment.ID), status)
	return nil
}
