package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hakim/examkit/internal/ingress"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/storage"
	"github.com/hakim/examkit/internal/validate"
	"github.com/hakim/examkit/internal/workspace"
	"github.com/spf13/cobra"
)

var deployMultiCmd = &cobra.Command{
	Use:   "deploy-multi",
	Short: "Provision the full exam workspace",
	Long: `Collects the standalone systems and Active Directory machines (interactively,
or from a YAML plan with --from), registers "<name>.<exam suffix>" for each in the
hosts file, creates every target's evidence tree under the workspace root, and starts
the shared payload ingress server.

A target that fails validation or provisioning is reported and skipped; the rest of
the batch still runs.`,
	RunE: runDeployMulti,
}

func init() {
	deployMultiCmd.Flags().String("from", "", "YAML plan file instead of interactive prompts")
	rootCmd.AddCommand(deployMultiCmd)
}

func runDeployMulti(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	mode, err := validate.ParseMode(cfg.Deploy.StandaloneNaming)
	if err != nil {
		return err
	}

	var plan workspace.Plan
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		if plan, err = workspace.LoadPlan(from); err != nil {
			return err
		}
		fmt.Printf("[*] Loaded plan %s: %d standalone, %d AD\n", from, len(plan.Standalone), len(plan.ActiveDirectory))
	} else {
		prompter := workspace.NewLinePrompter(os.Stdin, os.Stdout)
		if plan, err = workspace.CollectPlan(prompter, cfg.Deploy.StandaloneCount, cfg.Deploy.ADRoles, mode); err != nil {
			return fmt.Errorf("collecting targets: %w", err)
		}
	}

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

	deployment := storage.NewDeployment(models.KindMulti, cfg.WorkspaceRoot)
	if err := store.SaveDeployment(deployment); err != nil {
		log.WithError(err).Warn("could not record deployment start")
	}

	fmt.Printf("[*] Building workspace at %s\n", cfg.WorkspaceRoot)
	res := builder.BuildBatch(plan, mode)
	deployment.Targets = res.Targets
	alreadyServing := errors.Is(res.Errors[workspace.KeyIngress], ingress.ErrPortInUse)
	if alreadyServing {
		delete(res.Errors, workspace.KeyIngress)
	}
	status := finishDeployment(store, deployment, len(res.Targets), res.Errors)

	fmt.Println()
	fmt.Println("Standalone Systems:")
	for _, t := range res.Targets {
		if t.Classification == models.ClassStandalone {
			fmt.Printf("[+] %s -> %s (%s)\n", t.FQDN(), t.IP, builder.TargetPath(t))
		}
	}
	fmt.Println("Active Directory Machines:")
	for _, t := range res.Targets {
		if t.Classification == models.ClassActiveDirectory {
			fmt.Printf("[+] %s -> %s (%s)\n", t.FQDN(), t.IP, builder.TargetPath(t))
		}
	}
	if res.IngressPID != 0 {
		fmt.Printf("[+] Ingress server (pid %d) serving %s on port %d\n", res.IngressPID, res.IngressDir, cfg.Ingress.BatchPort)
	}
	if alreadyServing {
		fmt.Printf("[*] Ingress already serving on port %d\n", cfg.Ingress.BatchPort)
	}

	printFailures(res.Errors)
	fmt.Printf("\n[*] Deployment %s finished: %s\n", shortID(deployment.ID), status)

	if status == models.StatusFailed {
		return fmt.Errorf("no target was provisioned")
	}
	return nil
}
