package preflight

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTools(t *testing.T) {
	tools := []ToolRequirement{
		{Name: "nmap", Binary: "nmap", Required: true},
		{Name: "ghost", Binary: "ghost"},
	}
	look := func(bin string) (string, error) {
		if bin == "nmap" {
			return "/usr/bin/nmap", nil
		}
		return "", errors.New("not found")
	}
	results := checkTools(tools, look, func(string) string { return "Nmap version 7.94" })

	require.Len(t, results, 2)
	assert.True(t, results[0].Found)
	assert.Equal(t, "/usr/bin/nmap", results[0].Path)
	assert.Equal(t, "Nmap version 7.94", results[0].Version)
	assert.False(t, results[1].Found)
	assert.Empty(t, results[1].Version)
}

func TestDefaultToolsRequireNmap(t *testing.T) {
	var required []string
	for _, tool := range DefaultTools() {
		if tool.Required {
			required = append(required, tool.Binary)
		}
	}
	assert.Equal(t, []string{"nmap"}, required)
}

func TestCheckSystemAllGood(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/hosts", []byte("127.0.0.1 localhost\n"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "/usr/share/wordlists/rockyou.txt", []byte("123456\n"), 0644))

	checks := CheckSystem(Host{
		Fs:          fsys,
		HostsPath:   "/etc/hosts",
		Wordlist:    "/usr/share/wordlists/rockyou.txt",
		RequireRoot: true,
		Euid:        func() int { return 0 },
	})

	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.True(t, c.OK, c.Name)
	}
}

func TestCheckSystemFailures(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/etc/hosts", []byte(""), 0644))

	checks := CheckSystem(Host{
		Fs:          afero.NewReadOnlyFs(base),
		HostsPath:   "/etc/hosts",
		Wordlist:    "/missing.txt",
		RequireRoot: true,
		Euid:        func() int { return 1000 },
	})

	require.Len(t, checks, 3)
	assert.False(t, checks[0].OK)
	assert.True(t, checks[0].Required)
	assert.False(t, checks[1].OK, "read-only hosts file")
	assert.False(t, checks[2].OK)
	assert.Contains(t, checks[2].Detail, "not found")
}

func TestRequirePrivilegeDisabled(t *testing.T) {
	assert.True(t, RequirePrivilege(false))
}
