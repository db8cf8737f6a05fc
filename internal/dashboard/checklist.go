package dashboard

import (
	"net/http"

	"github.com/hakim/examkit/internal/checklist"
	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
)

// SystemSummary is one row of the systems listing
type SystemSummary struct {
	Name  string `json:"name"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// TaskView is a task with its checkbox field name and state
type TaskView struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// PhaseView is a template phase with per-task state
type PhaseView struct {
	Name  string     `json:"name"`
	Tasks []TaskView `json:"tasks"`
}

// ChecklistView is a target's checklist as rendered by the API
type ChecklistView struct {
	Category string      `json:"category"`
	System   string      `json:"system"`
	Phases   []PhaseView `json:"phases"`
	Done     int         `json:"done"`
	Total    int         `json:"total"`
}

func (s *Server) listSystems(w http.ResponseWriter, r *http.Request) {
	tmpl := s.templates.Template()
	out := make(map[string][]SystemSummary, len(Categories))
	for _, c := range Categories {
		names, err := s.catalog.ListTargets(c)
		if err != nil {
			s.fail(w, err)
			return
		}
		rows := make([]SystemSummary, 0, len(names))
		for _, name := range names {
			done, total := s.progress.Get(name, tmpl).Done()
			rows = append(rows, SystemSummary{Name: name, Done: done, Total: total})
		}
		out[string(c)] = rows
	}
	writeJSON(w, http.StatusOK, out)
}

// system resolves the {category}/{name} path values to a known target
func (s *Server) system(w http.ResponseWriter, r *http.Request) (models.Classification, string, bool) {
	category := models.Classification(r.PathValue("category"))
	name := r.PathValue("name")
	for _, c := range Categories {
		if c == category && s.catalog.HasTarget(c, name) {
			return c, name, true
		}
	}
	notFound(w, "system")
	return "", "", false
}

func (s *Server) getChecklist(w http.ResponseWriter, r *http.Request) {
	c, name, ok := s.system(w, r)
	if !ok {
		return
	}
	tmpl := s.templates.Template()
	writeJSON(w, http.StatusOK, view(c, name, tmpl, s.progress.Get(name, tmpl)))
}

func (s *Server) postChecklist(w http.ResponseWriter, r *http.Request) {
	c, name, ok := s.system(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		s.fail(w, failure.Invalid("update checklist", "bad form: %v", err))
		return
	}

	tmpl := s.templates.Template()
	progress, err := s.progress.ApplyUpdate(name, tmpl, r.PostForm)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(c, name, tmpl, progress))
}

func view(c models.Classification, name string, tmpl checklist.Template, p checklist.Progress) ChecklistView {
	v := ChecklistView{Category: string(c), System: name, Phases: make([]PhaseView, 0, len(tmpl.Phases))}
	for _, phase := range tmpl.Phases {
		pv := PhaseView{Name: phase.Name, Tasks: make([]TaskView, len(phase.Tasks))}
		for i, task := range phase.Tasks {
			pv.Tasks[i] = TaskView{Field: checklist.FieldKey(phase.Name, i), Label: task, Done: p[phase.Name][i]}
		}
		v.Phases = append(v.Phases, pv)
	}
	v.Done, v.Total = p.Done()
	return v
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := s.templates.MarshalIndent()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) putTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.fail(w, failure.Invalid("replace checklist template", "reading body: %v", err))
		return
	}
	tmpl, err := s.templates.Replace(data)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.log.WithField("phases", len(tmpl.Phases)).Info("checklist template replaced")
	writeJSON(w, http.StatusOK, tmpl)
}
