package workspace

import (
	"errors"
	"path/filepath"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/validate"
)

// SingleResult is what a single-target deployment produced
type SingleResult struct {
	Target     models.Target
	Path       string
	Existed    bool
	IngressPID int
	Errors     []error
}

// Err joins the non-fatal failures of the run
func (r *SingleResult) Err() error {
	return errors.Join(r.Errors...)
}

// BuildSingle provisions one ad-hoc target under root (the configured single root when
// empty). If a directory for name already exists nothing is done and Existed is set.
// Otherwise the IP is collected from p, registered under the single-target suffix, and
// the skeleton plus a dedicated ingress server are created.
func (b *Builder) BuildSingle(name, root string, p Prompter) (*SingleResult, error) {
	if !validate.IsValidIdentifier(name, validate.ModePermissive) {
		return nil, failure.Invalid("deploy single", "invalid target name %q (%s)", name, validate.ModePermissive.Describe())
	}
	if root == "" {
		root = b.opts.SingleRoot
	}

	if existing, ok := b.findExisting(root, name); ok {
		b.log.WithField("path", existing).Info("target already provisioned")
		return &SingleResult{Path: existing, Existed: true}, nil
	}

	ip, err := askIP(p, name)
	if err != nil {
		return nil, err
	}

	t := models.Target{
		Name:           name,
		IP:             ip,
		Classification: models.ClassSingle,
		DomainSuffix:   b.opts.SingleSuffix,
	}
	res := &SingleResult{Target: t, Path: filepath.Join(root, t.DirName())}

	if err := b.hosts.Upsert(t.FQDN(), t.IP); err != nil {
		b.logFailure(t, err)
		res.Errors = append(res.Errors, err)
	}

	if err := b.buildTarget(res.Path); err != nil {
		b.logFailure(t, err)
		res.Errors = append(res.Errors, err)
		return res, nil
	}

	if err := b.chown(res.Path); err != nil {
		b.log.WithError(err).Warn("ownership change failed")
		res.Errors = append(res.Errors, err)
	}

	pid, err := b.startIngress(filepath.Join(res.Path, IngressDir), b.opts.SinglePort)
	if err != nil {
		b.log.WithError(err).Warn("ingress server failed to start")
		res.Errors = append(res.Errors, err)
	}
	res.IngressPID = pid

	return res, nil
}
