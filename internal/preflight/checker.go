// Package preflight verifies the host is ready for an exam deployment: privilege,
// a writable hosts file, the wordlist, and the usual toolbox binaries.
package preflight

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ToolRequirement represents an external tool dependency
type ToolRequirement struct {
	Name       string // Display name
	Binary     string // Executable name
	Required   bool
	InstallCmd string
	Purpose    string
}

// CheckResult represents the result of checking a single tool
type CheckResult struct {
	Tool    ToolRequirement
	Found   bool
	Path    string
	Version string
}

// DefaultTools returns the binaries an exam workspace expects on PATH
func DefaultTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "nmap", Binary: "nmap", Required: true, InstallCmd: "apt install nmap", Purpose: "Port and service scanning"},
		{Name: "feroxbuster", Binary: "feroxbuster", InstallCmd: "apt install feroxbuster", Purpose: "Content discovery"},
		{Name: "hashcat", Binary: "hashcat", InstallCmd: "apt install hashcat", Purpose: "Offline hash cracking"},
		{Name: "john", Binary: "john", InstallCmd: "apt install john", Purpose: "Offline hash cracking"},
		{Name: "netexec", Binary: "nxc", InstallCmd: "pipx install git+https://github.com/Pennyw0rth/NetExec", Purpose: "SMB/WinRM/LDAP spraying"},
		{Name: "evil-winrm", Binary: "evil-winrm", InstallCmd: "gem install evil-winrm", Purpose: "WinRM shell"},
		{Name: "cherrytree", Binary: "cherrytree", InstallCmd: "apt install cherrytree", Purpose: "Opening .ctb notes"},
	}
}

// CheckTools checks all tools in the provided list
func CheckTools(tools []ToolRequirement) []CheckResult {
	return checkTools(tools, exec.LookPath, getVersion)
}

func checkTools(tools []ToolRequirement, look func(string) (string, error), version func(string) string) []CheckResult {
	results := make([]CheckResult, len(tools))
	for i, tool := range tools {
		results[i] = CheckResult{Tool: tool}
		path, err := look(tool.Binary)
		if err != nil {
			continue
		}
		results[i].Found = true
		results[i].Path = path
		results[i].Version = version(tool.Binary)
	}
	return results
}

// getVersion attempts to get the version of a tool; each probe has a 5s timeout
func getVersion(binary string) string {
	for _, flag := range []string{"--version", "-version", "-v", "version"} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cmd := exec.CommandContext(ctx, binary, flag)
		cmd.WaitDelay = time.Second
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		cancel()
		if err == nil && out.Len() > 0 {
			version := strings.TrimSpace(strings.Split(out.String(), "\n")[0])
			if len(version) > 50 {
				version = version[:50] + "..."
			}
			return version
		}
	}
	return "unknown"
}

// Host describes the system checks to run
type Host struct {
	Fs          afero.Fs
	HostsPath   string
	Wordlist    string
	RequireRoot bool
	Euid        func() int
}

// SystemCheck is one pass/fail line of the system section
type SystemCheck struct {
	Name     string
	OK       bool
	Required bool
	Detail   string
}

// CheckSystem runs the privilege, hosts-file and wordlist checks
func CheckSystem(h Host) []SystemCheck {
	euid := h.Euid
	if euid == nil {
		euid = os.Geteuid
	}

	checks := []SystemCheck{privilege(euid(), h.RequireRoot)}
	checks = append(checks, hostsWritable(h.Fs, h.HostsPath, h.RequireRoot))

	wl := SystemCheck{Name: "wordlist", Detail: h.Wordlist}
	if fi, err := h.Fs.Stat(h.Wordlist); err == nil && !fi.IsDir() {
		wl.OK = true
	} else {
		wl.Detail += " (not found, hashes/ will not be seeded)"
	}
	return append(checks, wl)
}

func privilege(euid int, required bool) SystemCheck {
	c := SystemCheck{Name: "root privilege", Required: required, OK: euid == 0}
	if c.OK {
		c.Detail = "running as root"
	} else {
		c.Detail = "not root, run with sudo"
	}
	return c
}

func hostsWritable(fsys afero.Fs, path string, required bool) SystemCheck {
	c := SystemCheck{Name: "hosts file", Required: required, Detail: path}
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		c.Detail += " (" + err.Error() + ")"
		return c
	}
	f.Close()
	c.OK = true
	return c
}

// RequirePrivilege reports whether the current process may perform mutating commands
func RequirePrivilege(required bool) bool {
	return !required || os.Geteuid() == 0
}
