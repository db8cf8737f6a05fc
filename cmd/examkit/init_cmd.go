package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hakim/examkit/internal/config"
	"github.com/hakim/examkit/internal/logging"
	"github.com/hakim/examkit/internal/storage"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize examkit with default configuration",
	Long: `Creates a default configuration file (examkit.yaml), the dashboard data
directory with its default checklist template and reference documents, and the
database that records deployments and ingress servers.

This is typically the first command you run when setting up examkit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(initDir, "examkit.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("[+] Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log = logging.New(cfg.LogLevel, cfg.LogFile)

		if err := storage.EnsureDir(cfg.Dashboard.DataDir); err != nil {
			return fmt.Errorf("failed to create dashboard directory: %w", err)
		}
		if _, _, err := openChecklist(); err != nil {
			return fmt.Errorf("failed to initialize checklist: %w", err)
		}
		if _, err := openRefs(); err != nil {
			return fmt.Errorf("failed to initialize reference documents: %w", err)
		}
		fmt.Printf("[+] Initialized dashboard data: %s\n", cfg.Dashboard.DataDir)

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		fmt.Printf("[+] Initialized database: %s\n", cfg.DBPath)

		fmt.Println()
		fmt.Println("ExamKit initialized successfully!")
		fmt.Println("Run 'examkit check' to verify your environment.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
