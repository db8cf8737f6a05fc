package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hakim/examkit/internal/validate"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	WorkspaceRoot string          `mapstructure:"workspace_root" yaml:"workspace_root"`
	SingleRoot    string          `mapstructure:"single_root" yaml:"single_root"`
	DBPath        string          `mapstructure:"db_path" yaml:"db_path"`
	LogFile       string          `mapstructure:"log_file" yaml:"log_file"`
	LogLevel      string          `mapstructure:"log_level" yaml:"log_level"`
	RequireRoot   bool            `mapstructure:"require_root" yaml:"require_root"`
	Owner         string          `mapstructure:"owner" yaml:"owner"`
	Hosts         HostsConfig     `mapstructure:"hosts" yaml:"hosts"`
	Domains       DomainsConfig   `mapstructure:"domains" yaml:"domains"`
	Deploy        DeployConfig    `mapstructure:"deploy" yaml:"deploy"`
	Ingress       IngressConfig   `mapstructure:"ingress" yaml:"ingress"`
	Dashboard     DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Notify        NotifyConfig    `mapstructure:"notify" yaml:"notify"`
}

// HostsConfig locates the name-resolution table and its snapshots
type HostsConfig struct {
	Path      string `mapstructure:"path" yaml:"path"`
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`
	Keep      int    `mapstructure:"keep" yaml:"keep"`
}

// DomainsConfig holds the per-engagement domain suffixes
type DomainsConfig struct {
	Exam   string `mapstructure:"exam" yaml:"exam"`
	Single string `mapstructure:"single" yaml:"single"`
}

// DeployConfig controls batch collection and artifact seeding
type DeployConfig struct {
	StandaloneCount  int      `mapstructure:"standalone_count" yaml:"standalone_count"`
	StandaloneNaming string   `mapstructure:"standalone_naming" yaml:"standalone_naming"`
	ADRoles          []string `mapstructure:"ad_roles" yaml:"ad_roles"`
	Wordlist         string   `mapstructure:"wordlist" yaml:"wordlist"`
	NotesExtension   string   `mapstructure:"notes_extension" yaml:"notes_extension"`
}

// IngressConfig sets where payload file servers listen
type IngressConfig struct {
	Bind       string `mapstructure:"bind" yaml:"bind"`
	BatchPort  int    `mapstructure:"batch_port" yaml:"batch_port"`
	SinglePort int    `mapstructure:"single_port" yaml:"single_port"`
}

// DashboardConfig configures the checklist/reference API
type DashboardConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// NotifyConfig configures deployment completion webhooks
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// Load reads configuration from a YAML file layered over the defaults.
// If path is empty, searches for examkit.yaml in the current directory and
// ~/.config/examkit/. A missing file leaves the defaults in place.
// EXAMKIT_* environment variables override both (EXAMKIT_HOSTS_PATH, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("examkit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("examkit")
		v.AddConfigPath(".")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "examkit"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.WorkspaceRoot == "" {
		errs = append(errs, errors.New("workspace_root cannot be empty"))
	}

	if c.SingleRoot == "" {
		errs = append(errs, errors.New("single_root cannot be empty"))
	}

	if c.Hosts.Path == "" {
		errs = append(errs, errors.New("hosts.path cannot be empty"))
	}

	if c.Hosts.Keep < 1 {
		errs = append(errs, errors.New("hosts.keep must be at least 1"))
	}

	if c.Domains.Exam == "" || c.Domains.Single == "" {
		errs = append(errs, errors.New("domains.exam and domains.single must be set"))
	} else if strings.EqualFold(c.Domains.Exam, c.Domains.Single) {
		errs = append(errs, errors.New("domains.exam and domains.single must differ"))
	}

	if c.Deploy.StandaloneCount < 0 {
		errs = append(errs, errors.New("deploy.standalone_count cannot be negative"))
	}

	if _, err := validate.ParseMode(c.Deploy.StandaloneNaming); err != nil {
		errs = append(errs, fmt.Errorf("deploy.standalone_naming: %w", err))
	}

	for _, role := range c.Deploy.ADRoles {
		if !validate.IsValidIdentifier(role, validate.ModePermissive) {
			errs = append(errs, fmt.Errorf("deploy.ad_roles: invalid role name %q", role))
		}
	}

	for name, port := range map[string]int{
		"ingress.batch_port":  c.Ingress.BatchPort,
		"ingress.single_port": c.Ingress.SinglePort,
	} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 65535", name))
		}
	}

	if c.Ingress.BatchPort == c.Ingress.SinglePort {
		errs = append(errs, errors.New("ingress.batch_port and ingress.single_port must differ"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Suffixes returns every domain suffix this tool registers names under
func (c *Config) Suffixes() []string {
	return []string{c.Domains.Exam, c.Domains.Single}
}
