// Package dashboard exposes checklist progress and the reference documents as a small
// JSON API over the workspace tree.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hakim/examkit/internal/checklist"
	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/hakim/examkit/internal/refstore"
	"github.com/sirupsen/logrus"
)

// Catalog enumerates provisioned targets
type Catalog interface {
	ListTargets(c models.Classification) ([]string, error)
	HasTarget(c models.Classification, dirName string) bool
}

// Categories are listed in this order
var Categories = []models.Classification{models.ClassStandalone, models.ClassActiveDirectory, models.ClassSingle}

const maxBody = 1 << 20

// Server serves the dashboard API
type Server struct {
	catalog   Catalog
	templates *checklist.TemplateStore
	progress  *checklist.ProgressStore
	refs      map[refstore.Kind]*refstore.Store
	log       logrus.FieldLogger
}

// New wires a Server. refs must hold one store per refstore.Kinds entry.
func New(catalog Catalog, templates *checklist.TemplateStore, progress *checklist.ProgressStore, refs map[refstore.Kind]*refstore.Store, log logrus.FieldLogger) *Server {
	return &Server{
		catalog:   catalog,
		templates: templates,
		progress:  progress,
		refs:      refs,
		log:       log.WithField("component", "dashboard"),
	}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/systems", s.listSystems)
	mux.HandleFunc("GET /api/systems/{category}/{name}/checklist", s.getChecklist)
	mux.HandleFunc("POST /api/systems/{category}/{name}/checklist", s.postChecklist)
	mux.HandleFunc("GET /api/checklist/template", s.getTemplate)
	mux.HandleFunc("PUT /api/checklist/template", s.putTemplate)
	mux.HandleFunc("GET /api/refs/{kind}", s.listRefs)
	mux.HandleFunc("POST /api/refs/{kind}", s.setRef)
	mux.HandleFunc("DELETE /api/refs/{kind}", s.deleteRef)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("dashboard listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch failure.KindOf(err) {
	case failure.Validation:
		status = http.StatusBadRequest
	case failure.PermissionDenied:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: what + " not found"})
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}
