package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hakim/examkit/internal/dashboard"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the checklist and reference API",
	Long: `Serves a JSON API over the workspace: the provisioned systems, each system's
checklist progress, the checklist template, and the cheat sheet, bookmark and
repository-link documents.

Edits made to the template file on disk are picked up while the server runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Dashboard.Addr
		}

		builder := newCatalog()
		templates, progress, err := openChecklist()
		if err != nil {
			return err
		}
		refs, err := openRefs()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watchDone, err := templates.Watch(ctx)
		if err != nil {
			log.WithError(err).Warn("template hot reload disabled")
		}

		fmt.Printf("[*] Dashboard API on http://%s/api/systems\n", addr)
		srv := dashboard.New(builder, templates, progress, refs, log)
		err = srv.ListenAndServe(ctx, addr)

		stop()
		if watchDone != nil {
			<-watchDone
		}
		return err
	},
}

func init() {
	dashboardCmd.Flags().String("addr", "", "listen address (default: dashboard.addr from config)")
	rootCmd.AddCommand(dashboardCmd)
}
