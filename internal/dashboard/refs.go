package dashboard

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/refstore"
)

func (s *Server) ref(w http.ResponseWriter, r *http.Request) (*refstore.Store, bool) {
	kind, ok := refstore.ParseKind(r.PathValue("kind"))
	if ok {
		if store, found := s.refs[kind]; found {
			return store, true
		}
	}
	notFound(w, "reference document")
	return nil, false
}

func (s *Server) listRefs(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ref(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, store.All())
}

// setRef accepts either a JSON {"title","value"} body or form fields of the same names
func (s *Server) setRef(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ref(w, r)
	if !ok {
		return
	}

	var in refstore.Entry
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		data, err := readBody(r)
		if err == nil {
			err = json.Unmarshal(data, &in)
		}
		if err != nil {
			s.fail(w, failure.Invalid("set reference", "bad body: %v", err))
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseForm(); err != nil {
			s.fail(w, failure.Invalid("set reference", "bad form: %v", err))
			return
		}
		in = refstore.Entry{Title: r.PostForm.Get("title"), Value: r.PostForm.Get("value")}
	}

	entry, err := store.Set(in.Title, in.Value)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteRef(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ref(w, r)
	if !ok {
		return
	}
	removed, err := store.Delete(r.URL.Query().Get("title"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !removed {
		notFound(w, "entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
