package main

import (
	"fmt"

	"github.com/hakim/examkit/internal/config"
	"github.com/hakim/examkit/internal/logging"
	"github.com/hakim/examkit/internal/preflight"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	log     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "examkit",
	Short: "Workspace and hosts-file provisioning for exam engagements",
	Long: `ExamKit prepares a local workspace for a penetration-test exam or a one-off lab
target. It registers each target's name in the hosts file (with rotated backups),
creates a per-target evidence tree, stages a payload ingress server, and serves a
small dashboard API for checklist progress and reference notes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":    true,
			"help":    true,
			"version": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log = logging.New(level, cfg.LogFile)
		log.WithField("command", cmd.CommandPath()).Debug("config loaded")

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "examkit.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug-level logging")

	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// requireRoot is the startup privilege check for commands that touch the hosts file
func requireRoot() error {
	if !preflight.RequirePrivilege(cfg.RequireRoot) {
		log.Error("privilege check failed")
		return fmt.Errorf("this command must be run as root (or set require_root: false)")
	}
	return nil
}
