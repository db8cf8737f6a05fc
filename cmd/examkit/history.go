package main

import (
	"fmt"
	"strings"

	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past deployments",
	Long: `Display a formatted table of past deployments, newest first. Each row shows
the deployment ID (truncated), kind, start time, final status and targets.

Use --kind to show only multi or single deployments and --limit to cap the number of
rows shown (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		switch models.DeploymentKind(kind) {
		case "", models.KindMulti, models.KindSingle:
		default:
			return fmt.Errorf("unknown kind %q (want multi or single)", kind)
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		deployments, err := store.ListDeployments(models.DeploymentKind(kind))
		if err != nil {
			return fmt.Errorf("listing deployments: %w", err)
		}

		if len(deployments) == 0 {
			fmt.Println("No deployment history found")
			return nil
		}

		if limit > 0 && len(deployments) > limit {
			deployments = deployments[:limit]
		}

		const separator = "────────────────────────────────────────────────────────────────────────"

		fmt.Println("\nDeployment History")
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-7s  %-20s  %-9s  %s\n", "#", "ID", "Kind", "Started", "Status", "Targets")
		fmt.Println(separator)

		for i, d := range deployments {
			fmt.Printf("  %-3d  %-12s  %-7s  %-20s  %-9s  %s\n",
				i+1,
				shortID(d.ID),
				d.Kind,
				d.StartedAt.UTC().Format("2006-01-02 15:04"),
				d.Status,
				formatTargets(d.Targets))
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d deployment(s)\n\n", len(deployments))

		return nil
	},
}

// shortID returns the first 8 characters of a UUID followed by "..."
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func formatTargets(targets []models.Target) string {
	if len(targets) == 0 {
		return "-"
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.FQDN()
	}
	return strings.Join(names, ", ")
}

func init() {
	historyCmd.Flags().String("kind", "", "only show multi or single deployments")
	historyCmd.Flags().Int("limit", 10, "Maximum number of deployments to display")
	rootCmd.AddCommand(historyCmd)
}
