package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Error keys for batch-wide failures that belong to no single target
const (
	KeyWorkspace = "workspace"
	KeyIngress   = "ingress"
)

// BatchResult is what a batch deployment produced
type BatchResult struct {
	Standalone      map[string]string
	ActiveDirectory map[string]string
	Targets         []models.Target
	IngressDir      string
	IngressPID      int
	// Errors maps a target name (or KeyWorkspace / KeyIngress) to what went wrong
	Errors map[string]error
}

func (r *BatchResult) fail(key string, err error) {
	if err == nil {
		return
	}
	r.Errors[key] = errors.Join(r.Errors[key], err)
}

// BuildBatch provisions every target in plan. One target's failure never stops the
// others; failures are collected in the result and logged. Standalone names are checked
// with mode, AD role names with the permissive grammar.
func (b *Builder) BuildBatch(plan Plan, mode validate.Mode) *BatchResult {
	res := &BatchResult{
		Standalone:      map[string]string{},
		ActiveDirectory: map[string]string{},
		IngressDir:      b.SharedIngressPath(),
		Errors:          map[string]error{},
	}

	for _, dir := range []string{b.opts.WorkspaceRoot, filepath.Join(b.opts.WorkspaceRoot, clonesDir)} {
		if err := b.fs.MkdirAll(dir, 0755); err != nil {
			res.fail(KeyWorkspace, failure.FromIO("create workspace", err))
		}
	}

	groups := []struct {
		class   models.Classification
		entries []PlanEntry
		mode    validate.Mode
		out     map[string]string
	}{
		{models.ClassStandalone, plan.Standalone, mode, res.Standalone},
		{models.ClassActiveDirectory, plan.ActiveDirectory, validate.ModePermissive, res.ActiveDirectory},
	}

	for _, g := range groups {
		for _, entry := range g.entries {
			t := models.Target{
				Name:           entry.Name,
				IP:             entry.IP,
				Classification: g.class,
				DomainSuffix:   b.opts.ExamSuffix,
			}
			if err := checkTarget(t, g.mode); err != nil {
				b.logFailure(t, err)
				res.fail(t.Name, err)
				continue
			}

			if err := b.provision(t); err != nil {
				b.logFailure(t, err)
				res.fail(t.Name, err)
			}
			g.out[t.Name] = t.IP
			res.Targets = append(res.Targets, t)
		}
	}

	if err := b.fs.MkdirAll(res.IngressDir, 0755); err != nil {
		res.fail(KeyWorkspace, failure.FromIO("create ingress dir", err))
	}

	if err := b.writeStructureLog(res); err != nil {
		res.fail(KeyWorkspace, err)
	}

	if err := b.chown(b.opts.WorkspaceRoot); err != nil {
		b.log.WithError(err).Warn("ownership change failed")
		res.fail(KeyWorkspace, err)
	}

	pid, err := b.startIngress(res.IngressDir, b.opts.BatchPort)
	if err != nil {
		b.log.WithError(err).Warn("ingress server failed to start")
		res.fail(KeyIngress, err)
	}
	res.IngressPID = pid

	return res
}

// provision registers the hosts entry, then builds the directory tree. A failed hosts
// update does not prevent the directories from being created.
func (b *Builder) provision(t models.Target) error {
	var errs []error
	if err := b.hosts.Upsert(t.FQDN(), t.IP); err != nil {
		errs = append(errs, err)
	}
	if err := b.buildTarget(b.TargetPath(t)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func checkTarget(t models.Target, mode validate.Mode) error {
	if !validate.IsValidIdentifier(t.Name, mode) {
		return failure.Invalid("validate target", "invalid name %q (%s)", t.Name, mode.Describe())
	}
	if !validate.IsValidIPv4(t.IP) {
		return failure.Invalid("validate target", "invalid IPv4 address %q for %s", t.IP, t.Name)
	}
	return nil
}

func (b *Builder) logFailure(t models.Target, err error) {
	b.log.WithFields(logrus.Fields{
		"target": t.Name,
		"ip":     t.IP,
		"kind":   failure.KindOf(err),
	}).WithError(err).Error("target provisioning failed")
}

func (b *Builder) writeStructureLog(res *BatchResult) error {
	var sb strings.Builder
	sb.WriteString("Standalone Systems:\n")
	for _, t := range res.Targets {
		if t.Classification == models.ClassStandalone {
			fmt.Fprintf(&sb, "%s: %s\n", t.Name, t.IP)
		}
	}
	sb.WriteString("\nActive Directory Machines:\n")
	for _, t := range res.Targets {
		if t.Classification == models.ClassActiveDirectory {
			fmt.Fprintf(&sb, "%s: %s\n", t.Name, t.IP)
		}
	}

	path := filepath.Join(b.opts.WorkspaceRoot, structureLog)
	if err := afero.WriteFile(b.fs, path, []byte(sb.String()), 0644); err != nil {
		return failure.FromIO("write structure log", err)
	}
	return nil
}
