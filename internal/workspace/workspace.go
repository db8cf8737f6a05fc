// Package workspace materializes per-target evidence directories and registers each
// target's name in the hosts file.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Skeleton is the fixed set of subdirectories created under every target
var Skeleton = []string{"notes", "scans", "exploits", "proofs", "screenshots", "hashes", IngressDir}

const (
	// IngressDir holds payloads served to a single target
	IngressDir = "ingress"

	sharedIngress = "payloads/tools-ingress"
	clonesDir     = "github-clones"
	structureLog  = "structure_log.txt"
)

// Registrar binds a name to an address in the local resolver
type Registrar interface {
	Upsert(fqdn, ip string) error
}

// IngressStarter launches a background file server and returns its PID
type IngressStarter interface {
	Start(dir string, port int) (int, error)
}

// Owner is the uid/gid handed ownership of created trees
type Owner struct {
	UID int
	GID int
}

// Options configures a Builder
type Options struct {
	WorkspaceRoot  string
	SingleRoot     string
	ExamSuffix     string
	SingleSuffix   string
	Wordlist       string
	NotesExtension string
	BatchPort      int
	SinglePort     int
	Owner          *Owner
	Logger         logrus.FieldLogger
}

// Builder is the workspace provisioner
type Builder struct {
	fs      afero.Fs
	hosts   Registrar
	ingress IngressStarter
	opts    Options
	log     logrus.FieldLogger
}

// New creates a Builder. ingress may be nil, in which case no server is started.
func New(fsys afero.Fs, hosts Registrar, ingress IngressStarter, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Builder{
		fs:      fsys,
		hosts:   hosts,
		ingress: ingress,
		opts:    opts,
		log:     opts.Logger.WithField("component", "workspace"),
	}
}

// Root returns the directory holding targets of a classification
func (b *Builder) Root(c models.Classification) string {
	switch c {
	case models.ClassSingle:
		return b.opts.SingleRoot
	default:
		return filepath.Join(b.opts.WorkspaceRoot, string(c))
	}
}

// TargetPath returns "<classification-root>/<name>_<ip>"
func (b *Builder) TargetPath(t models.Target) string {
	return filepath.Join(b.Root(t.Classification), t.DirName())
}

// SharedIngressPath is the batch-wide payload directory
func (b *Builder) SharedIngressPath() string {
	return filepath.Join(b.opts.WorkspaceRoot, sharedIngress)
}

// ListTargets returns the target directory names under a classification root
func (b *Builder) ListTargets(c models.Classification) ([]string, error) {
	entries, err := afero.ReadDir(b.fs, b.Root(c))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, failure.FromIO("list targets", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasTarget reports whether dirName is a known target directory
func (b *Builder) HasTarget(c models.Classification, dirName string) bool {
	if dirName == "" || strings.ContainsAny(dirName, `/\`) || dirName == "." || dirName == ".." {
		return false
	}
	ok, err := afero.DirExists(b.fs, filepath.Join(b.Root(c), dirName))
	return err == nil && ok
}

// findExisting returns the first "<name>_*" directory under root, if any
func (b *Builder) findExisting(root, name string) (string, bool) {
	entries, err := afero.ReadDir(b.fs, root)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() && (e.Name() == name || strings.HasPrefix(e.Name(), name+"_")) {
			return filepath.Join(root, e.Name()), true
		}
	}
	return "", false
}

// buildTarget creates the skeleton, the empty notes file and the seeded wordlist.
// Everything is additive, so re-running converges on the same tree.
func (b *Builder) buildTarget(path string) error {
	var errs []error

	for _, sub := range Skeleton {
		if err := b.fs.MkdirAll(filepath.Join(path, sub), 0755); err != nil {
			errs = append(errs, failure.FromIO("create skeleton", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if b.opts.NotesExtension != "" {
		notes := filepath.Join(path, "notes", filepath.Base(path)+b.opts.NotesExtension)
		if err := b.touch(notes); err != nil {
			errs = append(errs, failure.FromIO("create notes file", err))
		}
	}

	if err := b.seedWordlist(filepath.Join(path, "hashes")); err != nil {
		errs = append(errs, failure.FromIO("seed wordlist", err))
	}

	return errors.Join(errs...)
}

func (b *Builder) touch(path string) error {
	exists, err := afero.Exists(b.fs, path)
	if err != nil || exists {
		return err
	}
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// seedWordlist copies the configured wordlist into dir unless it is already there.
// A missing source is skipped silently.
func (b *Builder) seedWordlist(dir string) error {
	if b.opts.Wordlist == "" {
		return nil
	}
	src, err := b.fs.Open(b.opts.Wordlist)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer src.Close()

	dest := filepath.Join(dir, filepath.Base(b.opts.Wordlist))
	if exists, err := afero.Exists(b.fs, dest); err != nil || exists {
		return err
	}

	out, err := b.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		b.fs.Remove(dest)
		return fmt.Errorf("copying %s: %w", b.opts.Wordlist, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	b.log.WithField("path", dest).Debug("wordlist seeded")
	return nil
}

// chown hands the tree under root to the configured owner
func (b *Builder) chown(root string) error {
	if b.opts.Owner == nil {
		return nil
	}
	uid, gid := b.opts.Owner.UID, b.opts.Owner.GID
	err := afero.Walk(b.fs, root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return b.fs.Chown(path, uid, gid)
	})
	if err != nil {
		return failure.FromIO("change ownership", err)
	}
	return nil
}

func (b *Builder) startIngress(dir string, port int) (int, error) {
	if b.ingress == nil {
		return 0, nil
	}
	pid, err := b.ingress.Start(dir, port)
	if err != nil {
		return 0, failure.E(failure.ProcessSignal, "start ingress server", err)
	}
	b.log.WithFields(logrus.Fields{"dir": dir, "port": port, "pid": pid}).Info("ingress server started")
	return pid, nil
}
