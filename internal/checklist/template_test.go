package checklist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hakim/examkit/internal/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParseTemplateKeepsOrder(t *testing.T) {
	data := []byte(`{
		// phases run top to bottom
		"zeta": ["last letter, first phase"],
		"alpha": ["a", "b",],
		"mid": [],
	}`)

	tmpl, err := ParseTemplate(data)
	require.NoError(t, err)
	require.Len(t, tmpl.Phases, 3)
	assert.Equal(t, "zeta", tmpl.Phases[0].Name)
	assert.Equal(t, "alpha", tmpl.Phases[1].Name)
	assert.Equal(t, []string{"a", "b"}, tmpl.Phases[1].Tasks)
	assert.Equal(t, "mid", tmpl.Phases[2].Name)

	out, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":["last letter, first phase"],"alpha":["a","b"],"mid":[]}`, string(out))
}

func TestParseTemplateErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"not object": `["recon"]`,
		"duplicate":  `{"recon": [], "recon": ["x"]}`,
		"bad tasks":  `{"recon": "scan"}`,
		"empty name": `{"": ["x"]}`,
		"truncated":  `{"recon": [`,
	} {
		_, err := ParseTemplate([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestTemplateStoreInitAndReplace(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store, err := NewTemplateStore(fsys, "/dash/checklist_template.json", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), store.Template())

	onDisk, err := afero.ReadFile(fsys, "/dash/checklist_template.json")
	require.NoError(t, err)
	parsed, err := ParseTemplate(onDisk)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), parsed)

	_, err = store.Replace([]byte(`{"recon": ["nmap"]`))
	require.Error(t, err)
	assert.Equal(t, DefaultTemplate(), store.Template(), "bad edits leave the template alone")

	tmpl, err := store.Replace([]byte(`{"recon": ["nmap", "feroxbuster"]}`))
	require.NoError(t, err)
	assert.Len(t, tmpl.Phases, 1)

	reopened, err := NewTemplateStore(fsys, "/dash/checklist_template.json", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, tmpl, reopened.Template())
}

func TestTemplateStoreReloadKeepsOldOnError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store, err := NewTemplateStore(fsys, "/t.json", logging.Discard())
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fsys, "/t.json", []byte(`{oops`), 0644))
	assert.Error(t, store.Reload())
	assert.Equal(t, DefaultTemplate(), store.Template())
}

func TestTemplateCloneIsDeep(t *testing.T) {
	tmpl := DefaultTemplate()
	c := tmpl.Clone()
	c.Phases[0].Tasks[0] = "changed"
	assert.Equal(t, "Identify domain names", tmpl.Phases[0].Tasks[0])
}

func TestTemplateStoreWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "checklist_template.json")
	store, err := NewTemplateStore(afero.NewOsFs(), path, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"web": ["dirbust", "vhosts"]}`), 0644))

	assert.Eventually(t, func() bool {
		p, ok := store.Template().Phase("web")
		return ok && len(p.Tasks) == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
