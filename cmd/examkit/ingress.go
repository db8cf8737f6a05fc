package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hakim/examkit/internal/ingress"
	"github.com/spf13/cobra"
)

var ingressCmd = &cobra.Command{
	Use:    "ingress",
	Short:  "Payload file server",
	Hidden: true,
}

var ingressServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a directory over HTTP until terminated",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := ingress.Serve(ctx, dir, addr, log.WithField("component", "ingress"))
		if err != nil {
			log.WithError(err).Error("ingress server exited")
		}
		return err
	},
}

func init() {
	ingressServeCmd.Flags().String("dir", ".", "directory to serve")
	ingressServeCmd.Flags().String("addr", ":8443", "listen address")
	ingressCmd.AddCommand(ingressServeCmd)
	rootCmd.AddCommand(ingressCmd)
}
