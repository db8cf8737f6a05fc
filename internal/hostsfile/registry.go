// Package hostsfile manages target bindings in the local name-resolution table
// (/etc/hosts). Every mutation snapshots the file first and rewrites it whole.
package hostsfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultKeep is the number of snapshots retained
	DefaultKeep = 5

	backupPrefix = "hosts."
	backupSuffix = ".bak"
	backupStamp  = "20060102-150405.000000000"
)

// Options configures a Registry
type Options struct {
	Path      string
	BackupDir string
	Keep      int
	Now       func() time.Time
	Logger    logrus.FieldLogger
}

// Registry is the host-registry store
type Registry struct {
	fs        afero.Fs
	path      string
	backupDir string
	keep      int
	now       func() time.Time
	log       logrus.FieldLogger
}

// New creates a Registry over fsys
func New(fsys afero.Fs, opts Options) *Registry {
	if opts.Keep <= 0 {
		opts.Keep = DefaultKeep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Registry{
		fs:        fsys,
		path:      opts.Path,
		backupDir: opts.BackupDir,
		keep:      opts.Keep,
		now:       opts.Now,
		log:       opts.Logger.WithField("component", "hostsfile"),
	}
}

// Path returns the managed hosts file
func (r *Registry) Path() string { return r.path }

// Snapshot copies the hosts file into the backup directory and prunes old copies,
// keeping the newest Keep. A missing hosts file is not an error.
func (r *Registry) Snapshot() error {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return failure.FromIO("snapshot hosts", err)
	}

	if err := r.fs.MkdirAll(r.backupDir, 0755); err != nil {
		return failure.FromIO("snapshot hosts", err)
	}

	name := backupPrefix + r.now().UTC().Format(backupStamp) + backupSuffix
	dest := filepath.Join(r.backupDir, name)
	if err := afero.WriteFile(r.fs, dest, data, 0644); err != nil {
		return failure.FromIO("snapshot hosts", err)
	}
	r.log.WithField("path", dest).Debug("hosts snapshot written")

	return r.prune()
}

// Backups lists retained snapshots, newest first
func (r *Registry) Backups() ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix) {
			names = append(names, e.Name())
		}
	}

	// Names embed a fixed-width timestamp, so lexical order is chronological
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(r.backupDir, n)
	}
	return paths, nil
}

// ReadSnapshot parses a backup written by Snapshot
func (r *Registry) ReadSnapshot(path string) ([]Line, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, failure.FromIO("read hosts backup", err)
	}
	return Parse(data), nil
}

func (r *Registry) prune() error {
	backups, err := r.Backups()
	if err != nil {
		return failure.FromIO("prune backups", err)
	}
	if len(backups) <= r.keep {
		return nil
	}

	var errs []error
	for _, old := range backups[r.keep:] {
		if err := r.fs.Remove(old); err != nil {
			errs = append(errs, err)
			continue
		}
		r.log.WithField("path", old).Debug("pruned hosts snapshot")
	}
	if len(errs) > 0 {
		return failure.FromIO("prune backups", errors.Join(errs...))
	}
	return nil
}

// Entries returns every parsed line of the hosts file
func (r *Registry) Entries() ([]Line, error) {
	lines, _, err := r.read()
	if err != nil {
		return nil, failure.FromIO("read hosts", err)
	}
	return lines, nil
}

// Lookup returns the address bound to fqdn
func (r *Registry) Lookup(fqdn string) (string, bool, error) {
	lines, err := r.Entries()
	if err != nil {
		return "", false, err
	}
	for _, l := range lines {
		if l.IsEntry() && l.HasHostname(fqdn) {
			return l.IP, true, nil
		}
	}
	return "", false, nil
}

// Upsert binds fqdn to ip. Any line using ip is dropped, and fqdn is removed from any
// other line, so exactly one binding remains for each.
func (r *Registry) Upsert(fqdn, ip string) error {
	if !validate.IsValidIPv4(ip) {
		return failure.Invalid("upsert hosts", "invalid IPv4 address %q", ip)
	}
	if fqdn == "" || strings.ContainsAny(fqdn, " \t#") {
		return failure.Invalid("upsert hosts", "invalid hostname %q", fqdn)
	}

	_, err := r.mutate("upsert hosts", func(lines []Line) ([]Line, int) {
		out := make([]Line, 0, len(lines)+1)
		for _, l := range lines {
			if !l.IsEntry() {
				out = append(out, l)
				continue
			}
			if l.IP == ip {
				continue
			}
			kept, _, ok := l.withoutHostnames(func(h string) bool { return strings.EqualFold(h, fqdn) })
			if ok {
				out = append(out, kept)
			}
		}
		return append(out, newEntry(ip, fqdn)), 1
	})
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"fqdn": fqdn, "ip": ip}).Info("hosts entry added")
	return nil
}

// RemoveBySuffix drops every hostname under the given domain suffix
func (r *Registry) RemoveBySuffix(suffix string) (int, error) {
	return r.RemoveAll([]string{suffix})
}

// RemoveAll drops every hostname under any of the given domain suffixes and returns
// how many hostnames were removed.
func (r *Registry) RemoveAll(suffixes []string) (int, error) {
	var tails []string
	for _, s := range suffixes {
		s = strings.Trim(strings.ToLower(s), ".")
		if s != "" {
			tails = append(tails, "."+s)
		}
	}
	if len(tails) == 0 {
		return 0, nil
	}

	removed, err := r.removeHostnames("remove hosts by suffix", func(h string) bool {
		h = strings.ToLower(h)
		for _, tail := range tails {
			if strings.HasSuffix(h, tail) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{"suffixes": suffixes, "removed": removed}).Info("hosts entries removed")
	return removed, nil
}

// RemoveByFqdn drops the exact hostname "<host>.<suffix>"
func (r *Registry) RemoveByFqdn(host, suffix string) (int, error) {
	fqdn := host
	if suffix != "" {
		fqdn = host + "." + suffix
	}
	removed, err := r.removeHostnames("remove hosts entry", func(h string) bool {
		return strings.EqualFold(h, fqdn)
	})
	if err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{"fqdn": fqdn, "removed": removed}).Info("hosts entry removed")
	return removed, nil
}

func (r *Registry) removeHostnames(op string, drop func(string) bool) (int, error) {
	return r.mutate(op, func(lines []Line) ([]Line, int) {
		total := 0
		out := make([]Line, 0, len(lines))
		for _, l := range lines {
			if !l.IsEntry() {
				out = append(out, l)
				continue
			}
			kept, n, ok := l.withoutHostnames(drop)
			total += n
			if ok {
				out = append(out, kept)
			}
		}
		return out, total
	})
}

// mutate runs a snapshot, then a whole-file read-modify-write. The snapshot is best
// effort: its failure is logged and the edit still happens.
func (r *Registry) mutate(op string, edit func([]Line) ([]Line, int)) (int, error) {
	if err := r.Snapshot(); err != nil {
		r.log.WithError(err).WithField("op", op).Warn("hosts snapshot failed")
	}

	lines, mode, err := r.read()
	if err != nil {
		return 0, failure.FromIO(op, err)
	}

	out, n := edit(lines)
	if n == 0 {
		return 0, nil
	}

	if err := afero.WriteFile(r.fs, r.path, render(out), mode); err != nil {
		return 0, failure.FromIO(op, fmt.Errorf("writing %s: %w", r.path, err))
	}
	return n, nil
}

func (r *Registry) read() ([]Line, os.FileMode, error) {
	mode := os.FileMode(0644)
	info, err := r.fs.Stat(r.path)
	switch {
	case err == nil:
		mode = info.Mode().Perm()
	case errors.Is(err, fs.ErrNotExist):
		return nil, mode, nil
	default:
		return nil, mode, err
	}

	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		return nil, mode, err
	}
	return Parse(data), mode, nil
}
