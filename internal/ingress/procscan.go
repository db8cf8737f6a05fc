package ingress

import (
	"bytes"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

// scan returns PIDs under /proc whose argv matches "<exe> ingress serve ..."
func (l *Launcher) scan() ([]int, error) {
	entries, err := afero.ReadDir(l.procfs, "/proc")
	if err != nil {
		return nil, err
	}

	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == l.self {
			continue
		}
		raw, err := afero.ReadFile(l.procfs, filepath.Join("/proc", e.Name(), "cmdline"))
		if err != nil {
			continue
		}
		if isIngressCmdline(raw, filepath.Base(l.exe)) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// isIngress reports whether pid is currently running "<exe> ingress serve". A PID whose
// command line cannot be read is treated as not ours.
func (l *Launcher) isIngress(pid int) bool {
	raw, err := afero.ReadFile(l.procfs, filepath.Join("/proc", strconv.Itoa(pid), "cmdline"))
	return err == nil && isIngressCmdline(raw, filepath.Base(l.exe))
}

func isIngressCmdline(raw []byte, exeName string) bool {
	args := bytes.Split(bytes.TrimRight(raw, "\x00"), []byte{0})
	if len(args) < 3 {
		return false
	}
	return filepath.Base(string(args[0])) == exeName &&
		string(args[1]) == "ingress" &&
		string(args[2]) == "serve"
}
