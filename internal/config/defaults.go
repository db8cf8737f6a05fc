package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		WorkspaceRoot: "oscp-exam",
		SingleRoot:    "targets",
		DBPath:        "examkit.db",
		LogFile:       "examkit.log",
		LogLevel:      "info",
		RequireRoot:   true,
		Owner:         "",
		Hosts: HostsConfig{
			Path:      "/etc/hosts",
			BackupDir: "hosts-backups",
			Keep:      5,
		},
		Domains: DomainsConfig{
			Exam:   "oscp",
			Single: "lab",
		},
		Deploy: DeployConfig{
			StandaloneCount:  3,
			StandaloneNaming: "strict",
			ADRoles:          []string{"ms01", "ms02", "dc01"},
			Wordlist:         "/usr/share/wordlists/rockyou.txt",
			NotesExtension:   ".ctb",
		},
		Ingress: IngressConfig{
			Bind:       "0.0.0.0",
			BatchPort:  8443,
			SinglePort: 8444,
		},
		Dashboard: DashboardConfig{
			Addr:    "127.0.0.1:9443",
			DataDir: "dashboard",
		},
	}
}

// setDefaults registers every key so that env overrides and partial files resolve
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("workspace_root", d.WorkspaceRoot)
	v.SetDefault("single_root", d.SingleRoot)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("require_root", d.RequireRoot)
	v.SetDefault("owner", d.Owner)

	v.SetDefault("hosts.path", d.Hosts.Path)
	v.SetDefault("hosts.backup_dir", d.Hosts.BackupDir)
	v.SetDefault("hosts.keep", d.Hosts.Keep)

	v.SetDefault("domains.exam", d.Domains.Exam)
	v.SetDefault("domains.single", d.Domains.Single)

	v.SetDefault("deploy.standalone_count", d.Deploy.StandaloneCount)
	v.SetDefault("deploy.standalone_naming", d.Deploy.StandaloneNaming)
	v.SetDefault("deploy.ad_roles", d.Deploy.ADRoles)
	v.SetDefault("deploy.wordlist", d.Deploy.Wordlist)
	v.SetDefault("deploy.notes_extension", d.Deploy.NotesExtension)

	v.SetDefault("ingress.bind", d.Ingress.Bind)
	v.SetDefault("ingress.batch_port", d.Ingress.BatchPort)
	v.SetDefault("ingress.single_port", d.Ingress.SinglePort)

	v.SetDefault("dashboard.addr", d.Dashboard.Addr)
	v.SetDefault("dashboard.data_dir", d.Dashboard.DataDir)

	v.SetDefault("notify.webhook_url", d.Notify.WebhookURL)
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
