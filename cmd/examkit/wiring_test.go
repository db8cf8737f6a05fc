package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hakim/examkit/internal/config"
	"github.com/hakim/examkit/internal/ingress"
	"github.com/hakim/examkit/internal/logging"
	"github.com/hakim/examkit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prevCfg, prevLog := cfg, log
	cfg, log = c, logging.Discard()
	t.Cleanup(func() { cfg, log = prevCfg, prevLog })
}

func TestCatalogIgnoresUnknownOwner(t *testing.T) {
	c := config.DefaultConfig()
	c.Owner = "no-such-user-examkit"
	c.WorkspaceRoot = t.TempDir()
	withConfig(t, c)

	_, err := newBuilder(nil, nil)
	assert.Error(t, err)

	catalog := newCatalog()
	require.NotNil(t, catalog)
	names, err := catalog.ListTargets(models.ClassStandalone)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestChildConfigPath(t *testing.T) {
	prev := cfgFile
	t.Cleanup(func() { cfgFile = prev })

	dir := t.TempDir()
	path := filepath.Join(dir, "examkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0600))

	cfgFile = path
	assert.Equal(t, path, childConfigPath())

	cfgFile = filepath.Join(dir, "missing.yaml")
	assert.Empty(t, childConfigPath())

	cfgFile = ""
	assert.Empty(t, childConfigPath())
}

func TestWithoutPortInUse(t *testing.T) {
	busy := fmt.Errorf("start ingress server: %w", ingress.ErrPortInUse)
	other := errors.New("mkdir denied")

	kept, found := withoutPortInUse([]error{other, busy})
	assert.True(t, found)
	assert.Equal(t, []error{other}, kept)

	kept, found = withoutPortInUse([]error{other})
	assert.False(t, found)
	assert.Equal(t, []error{other}, kept)
}
