package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hakim/examkit/internal/checklist"
	"github.com/hakim/examkit/internal/logging"
	"github.com/hakim/examkit/internal/refstore"
	"github.com/hakim/examkit/internal/workspace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fs      afero.Fs
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, dir := range []string{
		"/ws/standalone/alpha_10.0.0.1",
		"/ws/standalone/bravo_10.0.0.2",
		"/ws/active_directory/dc01_10.0.0.3",
		"/single/box_10.0.0.9",
	} {
		require.NoError(t, fsys.MkdirAll(dir, 0755))
	}

	log := logging.Discard()
	builder := workspace.New(fsys, nil, nil, workspace.Options{
		WorkspaceRoot: "/ws",
		SingleRoot:    "/single",
		Logger:        log,
	})
	templates, err := checklist.NewTemplateStore(fsys, "/dash/checklist_template.json", log)
	require.NoError(t, err)
	progress, err := checklist.NewProgressStore(fsys, "/dash/checklist_progress.json", log)
	require.NoError(t, err)

	refs := map[refstore.Kind]*refstore.Store{}
	for _, k := range refstore.Kinds {
		store, err := refstore.Open(fsys, filepath.Join("/dash", k.FileName()), k)
		require.NoError(t, err)
		refs[k] = store
	}

	return &fixture{fs: fsys, handler: New(builder, templates, progress, refs, log).Handler()}
}

func (f *fixture) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const form = "application/x-www-form-urlencoded"

func TestListSystems(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/systems", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string][]SystemSummary](t, rec)
	assert.Equal(t, []SystemSummary{
		{Name: "alpha_10.0.0.1", Total: 6},
		{Name: "bravo_10.0.0.2", Total: 6},
	}, got["standalone"])
	assert.Equal(t, []SystemSummary{{Name: "dc01_10.0.0.3", Total: 6}}, got["active_directory"])
	assert.Equal(t, []SystemSummary{{Name: "box_10.0.0.9", Total: 6}}, got["single"])
}

func TestChecklistUnknownSystem(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/api/systems/standalone/charlie_10.0.0.4/checklist",
		"/api/systems/active_directory/alpha_10.0.0.1/checklist",
		"/api/systems/bogus/alpha_10.0.0.1/checklist",
	} {
		rec := f.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := f.do(t, http.MethodPost, "/api/systems/standalone/charlie_10.0.0.4/checklist", form, "reconnaissance_0=on")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	exists, _ := afero.Exists(f.fs, "/dash/checklist_progress.json")
	assert.True(t, exists)
	data, _ := afero.ReadFile(f.fs, "/dash/checklist_progress.json")
	assert.JSONEq(t, `{}`, string(data), "unknown systems never get progress")
}

func TestChecklistRoundTrip(t *testing.T) {
	f := newFixture(t)
	path := "/api/systems/standalone/alpha_10.0.0.1/checklist"

	rec := f.do(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[ChecklistView](t, rec)
	assert.Equal(t, 0, before.Done)
	require.Len(t, before.Phases, 4)
	assert.Equal(t, "reconnaissance_1", before.Phases[0].Tasks[1].Field)

	body := url.Values{"reconnaissance_0": {"on"}, "enumeration_1": {"true"}, "exploitation_0": {"off"}}.Encode()
	rec = f.do(t, http.MethodPost, path, form, body)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[ChecklistView](t, rec)
	assert.Equal(t, 2, after.Done)
	assert.Equal(t, 6, after.Total)

	rec = f.do(t, http.MethodGet, path, "", "")
	again := decode[ChecklistView](t, rec)
	assert.True(t, again.Phases[0].Tasks[0].Done)
	assert.False(t, again.Phases[0].Tasks[1].Done)
	assert.True(t, again.Phases[1].Tasks[1].Done)
	assert.False(t, again.Phases[2].Tasks[0].Done)

	// resubmitting without a box clears it
	rec = f.do(t, http.MethodPost, path, form, "reconnaissance_0=on")
	assert.Equal(t, 1, decode[ChecklistView](t, rec).Done)

	rec = f.do(t, http.MethodGet, "/api/systems", "", "")
	got := decode[map[string][]SystemSummary](t, rec)
	assert.Equal(t, 1, got["standalone"][0].Done)
}

func TestTemplateReplace(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/checklist/template", "application/json", `{"recon": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/checklist/template", "application/json",
		`{
			// trimmed for the AD set
			"recon": ["nmap", "bloodhound",],
			"privesc": ["winpeas"]
		}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/checklist/template", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recon":["nmap","bloodhound"],"privesc":["winpeas"]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/systems/active_directory/dc01_10.0.0.3/checklist", "", "")
	v := decode[ChecklistView](t, rec)
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, "recon", v.Phases[0].Name)
}

func TestRefs(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/refs/cheatsheet", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]refstore.Entry](t, rec), 1)

	rec = f.do(t, http.MethodPost, "/api/refs/bookmarks", form, "title=HackTricks&value=book.hacktricks.xyz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://book.hacktricks.xyz", decode[refstore.Entry](t, rec).Value)

	rec = f.do(t, http.MethodPost, "/api/refs/githubs", "application/json", `{"title":"PEASS","value":"github.com/peass-ng/PEASS-ng"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/refs/githubs", "", "")
	assert.Equal(t, []refstore.Entry{{Title: "PEASS", Value: "https://github.com/peass-ng/PEASS-ng"}}, decode[[]refstore.Entry](t, rec))

	rec = f.do(t, http.MethodPost, "/api/refs/bookmarks", form, "title=&value=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/refs/bookmarks?title=HackTricks", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/refs/bookmarks?title=HackTricks", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/refs/passwords", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodDelete, "/api/systems", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
