package jsonfile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInitWritesDefault(t *testing.T) {
	fsys := afero.NewMemMapFs()

	var got map[string]string
	require.NoError(t, LoadOrInit(fsys, "/data/doc.json", &got, map[string]string{"a": "b"}))
	assert.Equal(t, map[string]string{"a": "b"}, got)

	data, err := afero.ReadFile(fsys, "/data/doc.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(data))

	exists, err := afero.Exists(fsys, "/data/doc.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadOrInitKeepsExisting(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/doc.json", []byte(`{"x":"y"}`), 0644))

	var got map[string]string
	require.NoError(t, LoadOrInit(fsys, "/doc.json", &got, map[string]string{"a": "b"}))
	assert.Equal(t, map[string]string{"x": "y"}, got)
}

func TestLoadOrInitCorrupt(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/doc.json", []byte(`{"x":`), 0644))

	var got map[string]string
	err := LoadOrInit(fsys, "/doc.json", &got, map[string]string{})
	assert.ErrorContains(t, err, "parsing /doc.json")
}
