package checklist

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hakim/examkit/internal/jsonfile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Progress is one target's completion flags, phase -> per-task flag
type Progress map[string][]bool

// Done counts completed tasks and the total
func (p Progress) Done() (done, total int) {
	for _, flags := range p {
		for _, f := range flags {
			total++
			if f {
				done++
			}
		}
	}
	return done, total
}

// ProgressStore persists every target's progress in one document
type ProgressStore struct {
	fs   afero.Fs
	path string
	log  logrus.FieldLogger

	mu  sync.Mutex
	doc map[string]Progress
}

// NewProgressStore loads the progress document, creating an empty one if missing
func NewProgressStore(fsys afero.Fs, path string, log logrus.FieldLogger) (*ProgressStore, error) {
	s := &ProgressStore{fs: fsys, path: path, log: log.WithField("component", "checklist")}
	if err := jsonfile.LoadOrInit(fsys, path, &s.doc, map[string]Progress{}); err != nil {
		return nil, err
	}
	if s.doc == nil {
		s.doc = map[string]Progress{}
	}
	return s, nil
}

// Get returns the target's progress aligned to tmpl. A target never seen before gets
// all-false flags sized to the template; nothing is persisted until the first update.
func (s *ProgressStore) Get(target string, tmpl Template) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return align(s.doc[target], tmpl)
}

// Materialized reports whether the target has persisted progress
func (s *ProgressStore) Materialized(target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doc[target]
	return ok
}

// ApplyUpdate sets every task of tmpl from submitted checkbox fields keyed
// "<phase>_<index>". A missing field means the task is not complete. The whole
// document is persisted afterwards.
func (s *ProgressStore) ApplyUpdate(target string, tmpl Template, fields url.Values) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := align(s.doc[target], tmpl)
	for _, phase := range tmpl.Phases {
		for idx := range phase.Tasks {
			values, present := fields[FieldKey(phase.Name, idx)]
			progress[phase.Name][idx] = present && len(values) > 0 && affirmative(values[len(values)-1])
		}
	}

	s.doc[target] = progress
	if err := s.save(); err != nil {
		return nil, err
	}
	s.log.WithField("target", target).Debug("checklist progress saved")
	return copyProgress(progress), nil
}

// Reset forgets the target's progress; the next Get starts from all-false
func (s *ProgressStore) Reset(target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc[target]; !ok {
		return false, nil
	}
	delete(s.doc, target)
	return true, s.save()
}

// Targets lists targets with persisted progress
func (s *ProgressStore) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.doc))
	for name := range s.doc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ProgressStore) save() error {
	if err := jsonfile.Write(s.fs, s.path, s.doc); err != nil {
		return fmt.Errorf("saving checklist progress: %w", err)
	}
	return nil
}

// FieldKey is the form field name for a task checkbox
func FieldKey(phase string, idx int) string {
	return fmt.Sprintf("%s_%d", phase, idx)
}

func affirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes", "checked":
		return true
	}
	return false
}

// align sizes stored flags to the current template: new phases and tasks start false,
// flags past a phase's task count are dropped, phases gone from the template are dropped.
func align(stored Progress, tmpl Template) Progress {
	out := make(Progress, len(tmpl.Phases))
	for _, phase := range tmpl.Phases {
		flags := make([]bool, len(phase.Tasks))
		copy(flags, stored[phase.Name])
		out[phase.Name] = flags
	}
	return out
}

func copyProgress(p Progress) Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = append([]bool(nil), v...)
	}
	return out
}
