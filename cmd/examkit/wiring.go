package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hakim/examkit/internal/checklist"
	"github.com/hakim/examkit/internal/hostsfile"
	"github.com/hakim/examkit/internal/ingress"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/notify"
	"github.com/hakim/examkit/internal/refstore"
	"github.com/hakim/examkit/internal/storage"
	"github.com/hakim/examkit/internal/workspace"
	"github.com/spf13/afero"
)

var osFs = afero.NewOsFs()

func newRegistry() *hostsfile.Registry {
	return hostsfile.New(osFs, hostsfile.Options{
		Path:      cfg.Hosts.Path,
		BackupDir: cfg.Hosts.BackupDir,
		Keep:      cfg.Hosts.Keep,
		Logger:    log,
	})
}

func newLauncher(store *storage.Store) (*ingress.Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	return ingress.NewLauncher(store, exe, cfg.Ingress.Bind, childConfigPath(), log), nil
}

// childConfigPath is the --config value handed to re-executed subcommands. It is empty
// when the config file does not exist, so the child falls back to the same defaults.
func childConfigPath() string {
	if cfgFile == "" {
		return ""
	}
	abs, err := filepath.Abs(cfgFile)
	if err != nil {
		return ""
	}
	if _, err := osFs.Stat(abs); err != nil {
		return ""
	}
	return abs
}

// withoutPortInUse drops ingress failures caused by a server already holding the port
func withoutPortInUse(errs []error) ([]error, bool) {
	kept := errs[:0:0]
	found := false
	for _, err := range errs {
		if errors.Is(err, ingress.ErrPortInUse) {
			found = true
			continue
		}
		kept = append(kept, err)
	}
	return kept, found
}

func builderOptions() workspace.Options {
	return workspace.Options{
		WorkspaceRoot:  cfg.WorkspaceRoot,
		SingleRoot:     cfg.SingleRoot,
		ExamSuffix:     cfg.Domains.Exam,
		SingleSuffix:   cfg.Domains.Single,
		Wordlist:       cfg.Deploy.Wordlist,
		NotesExtension: cfg.Deploy.NotesExtension,
		BatchPort:      cfg.Ingress.BatchPort,
		SinglePort:     cfg.Ingress.SinglePort,
		Logger:         log,
	}
}

// newBuilder wires the workspace builder. launcher may be nil to skip ingress servers.
func newBuilder(registry workspace.Registrar, launcher workspace.IngressStarter) (*workspace.Builder, error) {
	owner, err := workspace.ResolveOwner(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}
	opts := builderOptions()
	opts.Owner = owner
	return workspace.New(osFs, registry, launcher, opts), nil
}

// newCatalog returns a builder that only lists provisioned systems
func newCatalog() *workspace.Builder {
	return workspace.New(osFs, nil, nil, builderOptions())
}

func templatePath() string { return filepath.Join(cfg.Dashboard.DataDir, "checklist_template.json") }
func progressPath() string { return filepath.Join(cfg.Dashboard.DataDir, "checklist_progress.json") }

func openChecklist() (*checklist.TemplateStore, *checklist.ProgressStore, error) {
	templates, err := checklist.NewTemplateStore(osFs, templatePath(), log)
	if err != nil {
		return nil, nil, err
	}
	progress, err := checklist.NewProgressStore(osFs, progressPath(), log)
	if err != nil {
		return nil, nil, err
	}
	return templates, progress, nil
}

func openRefs() (map[refstore.Kind]*refstore.Store, error) {
	refs := make(map[refstore.Kind]*refstore.Store, len(refstore.Kinds))
	for _, k := range refstore.Kinds {
		store, err := refstore.Open(osFs, filepath.Join(cfg.Dashboard.DataDir, k.FileName()), k)
		if err != nil {
			return nil, err
		}
		refs[k] = store
	}
	return refs, nil
}

// finishDeployment derives the run status from its failures and persists it
func finishDeployment(store *storage.Store, d *models.Deployment, targets int, failures map[string]error) models.Status {
	d.Errors = make(map[string]string, len(failures))
	for key, err := range failures {
		d.Errors[key] = err.Error()
	}

	status := models.StatusComplete
	switch {
	case len(failures) > 0 && targets == 0:
		status = models.StatusFailed
	case len(failures) > 0:
		status = models.StatusPartial
	}

	if err := store.FinishDeployment(d, status); err != nil {
		log.WithError(err).WithField("deployment", d.ID).Warn("could not record deployment")
	}

	webhook := &notify.Webhook{URL: cfg.Notify.WebhookURL}
	if err := webhook.SendCompletion(d); err != nil {
		log.WithError(err).Warn("completion webhook failed")
	}
	return status
}

func printFailures(failures map[string]error) {
	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("[!] %s: %v\n", k, failures[k])
	}
}
