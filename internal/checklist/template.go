// Package checklist holds the per-target assessment checklist: a shared template of
// phases and tasks, and each target's completion flags aligned to it.
package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
)

// Phase is a named, ordered group of tasks
type Phase struct {
	Name  string
	Tasks []string
}

// Template is the ordered list of phases shared by every target.
// On disk it is a JSON object (phase -> task list) whose key order is preserved.
type Template struct {
	Phases []Phase
}

// DefaultTemplate is written when no template file exists yet
func DefaultTemplate() Template {
	return Template{Phases: []Phase{
		{Name: "reconnaissance", Tasks: []string{"Identify domain names", "Gather subdomains"}},
		{Name: "enumeration", Tasks: []string{"Port scan", "Identify running services"}},
		{Name: "exploitation", Tasks: []string{"Attempt known exploits"}},
		{Name: "post_exploitation", Tasks: []string{"Extract sensitive data"}},
	}}
}

// ParseTemplate parses a template document. Comments and trailing commas are allowed.
func ParseTemplate(data []byte) (Template, error) {
	var t Template
	if err := json.Unmarshal(jsonc.ToJSON(data), &t); err != nil {
		return Template{}, fmt.Errorf("parsing checklist template: %w", err)
	}
	return t, nil
}

// Phase returns the named phase
func (t Template) Phase(name string) (Phase, bool) {
	for _, p := range t.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Clone returns a deep copy
func (t Template) Clone() Template {
	out := Template{Phases: make([]Phase, len(t.Phases))}
	for i, p := range t.Phases {
		out.Phases[i] = Phase{Name: p.Name, Tasks: append([]string(nil), p.Tasks...)}
	}
	return out
}

// MarshalJSON writes the phases as an object in template order
func (t Template) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range t.Phases {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		tasks := p.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		val, err := json.Marshal(tasks)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a phase object, keeping key order
func (t *Template) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("checklist template must be an object of phase -> task list")
	}

	seen := map[string]bool{}
	var phases []Phase
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)
		if name == "" {
			return errors.New("checklist template: empty phase name")
		}
		if seen[name] {
			return fmt.Errorf("checklist template: duplicate phase %q", name)
		}
		seen[name] = true

		var tasks []string
		if err := dec.Decode(&tasks); err != nil {
			return fmt.Errorf("checklist template: phase %q: %w", name, err)
		}
		phases = append(phases, Phase{Name: name, Tasks: tasks})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	t.Phases = phases
	return nil
}
