package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examkit.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workspace_root: oscp-exam")
	assert.Contains(t, string(data), "batch_port: 8443")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examkit.yaml")
	content := `
workspace_root: /srv/exam
domains:
  exam: exam
deploy:
  ad_roles: [web01, dc01]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("EXAMKIT_HOSTS_PATH", "/tmp/hosts")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/exam", cfg.WorkspaceRoot)
	assert.Equal(t, "exam", cfg.Domains.Exam)
	assert.Equal(t, "lab", cfg.Domains.Single)
	assert.Equal(t, []string{"web01", "dc01"}, cfg.Deploy.ADRoles)
	assert.Equal(t, "/tmp/hosts", cfg.Hosts.Path)
	assert.Equal(t, 5, cfg.Hosts.Keep)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Hosts.Keep = 0
	cfg.Domains.Single = "OSCP"
	cfg.Deploy.StandaloneNaming = "loose"
	cfg.Deploy.ADRoles = []string{"domain_controller"}
	cfg.Ingress.SinglePort = cfg.Ingress.BatchPort

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "hosts.keep")
	assert.Contains(t, msg, "must differ")
	assert.Contains(t, msg, "standalone_naming")
	assert.Contains(t, msg, "domain_controller")
	assert.Contains(t, msg, "ingress.batch_port and ingress.single_port")
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  keep: 0\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "config validation failed")
}
