package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/jsonfile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// TemplateStore owns the template document. The file may be edited by hand while the
// dashboard runs; Watch picks those edits up.
type TemplateStore struct {
	fs   afero.Fs
	path string
	log  logrus.FieldLogger

	mu      sync.RWMutex
	current Template
}

// NewTemplateStore loads the template at path, writing the default one if missing
func NewTemplateStore(fsys afero.Fs, path string, log logrus.FieldLogger) (*TemplateStore, error) {
	s := &TemplateStore{fs: fsys, path: path, log: log.WithField("component", "checklist")}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		def := DefaultTemplate()
		if err := jsonfile.Write(fsys, path, def); err != nil {
			return nil, err
		}
		s.current = def
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tmpl, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}
	s.current = tmpl
	return s, nil
}

// Path returns the template file location
func (s *TemplateStore) Path() string { return s.path }

// Template returns a copy of the current template
func (s *TemplateStore) Template() Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Replace parses data as a new template and persists it
func (s *TemplateStore) Replace(data []byte) (Template, error) {
	tmpl, err := ParseTemplate(data)
	if err != nil {
		return Template{}, failure.E(failure.Validation, "replace checklist template", err)
	}
	if err := jsonfile.Write(s.fs, s.path, tmpl); err != nil {
		return Template{}, err
	}

	s.mu.Lock()
	s.current = tmpl
	s.mu.Unlock()
	return tmpl.Clone(), nil
}

// Reload re-reads the file. On a parse error the previous template stays in effect.
func (s *TemplateStore) Reload() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}
	tmpl, err := ParseTemplate(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = tmpl
	s.mu.Unlock()
	return nil
}

// MarshalIndent renders the current template for editing
func (s *TemplateStore) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s.Template(), "", "    ")
}

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the template whenever its file changes on disk. It watches the parent
// directory so editors that replace the file by rename are seen too. The returned
// channel is closed once ctx is done and the watcher has shut down.
func (s *TemplateStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	target := filepath.Clean(s.path)

	go func() {
		defer close(done)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				// Debounce bursts of saves
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				if err := s.Reload(); err != nil {
					s.log.WithError(err).Warn("checklist template reload failed")
					continue
				}
				s.log.WithField("path", s.path).Info("checklist template reloaded")

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Warn("checklist template watcher error")
			}
		}
	}()

	return done, nil
}
