package hostsfile

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseHosts = `127.0.0.1 localhost
::1 localhost ip6-localhost
# exam boxes
`

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestRegistry(t *testing.T, content string) (*Registry, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/hosts", []byte(content), 0644))
	clock := &tickClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	reg := New(fsys, Options{
		Path:      "/etc/hosts",
		BackupDir: "/var/backups/examkit",
		Now:       clock.Now,
		Logger:    logging.Discard(),
	})
	return reg, fsys
}

func readHosts(t *testing.T, fsys afero.Fs) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, "/etc/hosts")
	require.NoError(t, err)
	return string(data)
}

func countLines(content, needle string) int {
	n := 0
	for _, l := range strings.Split(content, "\n") {
		if l == needle {
			n++
		}
	}
	return n
}

func TestUpsertIdempotent(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	require.NoError(t, reg.Upsert("kiero.oscp", "10.10.10.5"))
	require.NoError(t, reg.Upsert("kiero.oscp", "10.10.10.5"))

	content := readHosts(t, fsys)
	assert.Equal(t, 1, countLines(content, "10.10.10.5 kiero.oscp"))
	assert.True(t, strings.HasPrefix(content, baseHosts), "unrelated lines must survive untouched")
}

func TestUpsertSupersedesSameIP(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	require.NoError(t, reg.Upsert("alpha.oscp", "10.10.10.5"))
	require.NoError(t, reg.Upsert("beta.oscp", "10.10.10.5"))

	_, found, err := reg.Lookup("alpha.oscp")
	require.NoError(t, err)
	assert.False(t, found)

	ip, found, err := reg.Lookup("beta.oscp")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "10.10.10.5", ip)
	assert.NotContains(t, readHosts(t, fsys), "alpha.oscp")
}

func TestUpsertSupersedesSameName(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	require.NoError(t, reg.Upsert("dc01.oscp", "10.10.10.10"))
	require.NoError(t, reg.Upsert("dc01.oscp", "10.10.10.20"))

	content := readHosts(t, fsys)
	assert.NotContains(t, content, "10.10.10.10")
	assert.Equal(t, 1, countLines(content, "10.10.10.20 dc01.oscp"))
}

func TestUpsertExactMatchOnly(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts+"10.10.10.7 web.oscp webdev.oscp\n")

	require.NoError(t, reg.Upsert("web.oscp", "10.10.10.8"))

	content := readHosts(t, fsys)
	assert.Contains(t, content, "10.10.10.7 webdev.oscp\n")
	assert.Contains(t, content, "10.10.10.8 web.oscp\n")
}

func TestUpsertRejectsBadInput(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	err := reg.Upsert("box.oscp", "10.10.10.256")
	assert.True(t, failure.Is(err, failure.Validation))

	err = reg.Upsert("bad name", "10.10.10.1")
	assert.True(t, failure.Is(err, failure.Validation))

	assert.Equal(t, baseHosts, readHosts(t, fsys))
}

func TestRemoveBySuffix(t *testing.T) {
	content := baseHosts +
		"10.10.10.5 kiero.oscp\n" +
		"10.10.10.6 ms01.oscp ms01 # keep short name\n" +
		"10.10.14.2 box.lab\n" +
		"10.10.14.3 notoscp.example\n"
	reg, fsys := newTestRegistry(t, content)

	removed, err := reg.RemoveBySuffix("oscp")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got := readHosts(t, fsys)
	assert.NotContains(t, got, ".oscp")
	assert.Contains(t, got, "10.10.10.6 ms01 # keep short name\n")
	assert.Contains(t, got, "10.10.14.2 box.lab\n")
	assert.Contains(t, got, "10.10.14.3 notoscp.example\n")
	assert.Contains(t, got, "127.0.0.1 localhost\n")
}

func TestRemoveAll(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts+"10.10.10.5 kiero.oscp\n10.10.14.2 box.lab\n")

	removed, err := reg.RemoveAll([]string{"oscp", "lab", ""})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, baseHosts, readHosts(t, fsys))
}

func TestRemoveByFqdn(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts+"10.10.14.2 box.lab\n10.10.14.3 boxy.lab\n")

	removed, err := reg.RemoveByFqdn("box", "lab")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got := readHosts(t, fsys)
	assert.Zero(t, countLines(got, "10.10.14.2 box.lab"))
	assert.Contains(t, got, "10.10.14.3 boxy.lab\n")

	removed, err = reg.RemoveByFqdn("missing", "lab")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSnapshotRotation(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	var written []string
	for i := 0; i < 6; i++ {
		require.NoError(t, reg.Snapshot())
		backups, err := reg.Backups()
		require.NoError(t, err)
		written = append(written, backups[0])
	}

	backups, err := reg.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 5)

	// Newest first; the very first snapshot is the one pruned
	for i := 0; i < 5; i++ {
		assert.Equal(t, written[5-i], backups[i])
	}
	exists, err := afero.Exists(fsys, written[0])
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := afero.ReadFile(fsys, backups[0])
	require.NoError(t, err)
	assert.Equal(t, baseHosts, string(data))
}

func TestMutationsSnapshotFirst(t *testing.T) {
	reg, fsys := newTestRegistry(t, baseHosts)

	require.NoError(t, reg.Upsert("kiero.oscp", "10.10.10.5"))
	backups, err := reg.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	data, err := afero.ReadFile(fsys, backups[0])
	require.NoError(t, err)
	assert.Equal(t, baseHosts, string(data), "snapshot holds the pre-mutation content")
	assert.Equal(t, "/var/backups/examkit", filepath.Dir(backups[0]))
}

func TestSnapshotFailureDoesNotBlockUpsert(t *testing.T) {
	dir := t.TempDir()
	fsys := afero.NewOsFs()
	hostsPath := filepath.Join(dir, "hosts")
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, afero.WriteFile(fsys, hostsPath, []byte(baseHosts), 0644))
	// a regular file where the backup directory should be
	require.NoError(t, afero.WriteFile(fsys, backupDir, []byte("x"), 0644))

	reg := New(fsys, Options{Path: hostsPath, BackupDir: backupDir, Logger: logging.Discard()})

	snapErr := reg.Snapshot()
	require.Error(t, snapErr)
	assert.True(t, failure.Is(snapErr, failure.Filesystem), fmt.Sprintf("got %v", snapErr))

	require.NoError(t, reg.Upsert("kiero.oscp", "10.10.10.5"))

	data, err := afero.ReadFile(fsys, hostsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(string(data), "10.10.10.5 kiero.oscp"))
	assert.True(t, strings.HasPrefix(string(data), baseHosts))
}

func TestPermissionDeniedLeavesFileUnmodified(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/etc/hosts", []byte(baseHosts), 0644))
	reg := New(afero.NewReadOnlyFs(base), Options{
		Path:      "/etc/hosts",
		BackupDir: "/var/backups/examkit",
		Logger:    logging.Discard(),
	})

	err := reg.Upsert("kiero.oscp", "10.10.10.5")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.PermissionDenied), fmt.Sprintf("got %v", err))

	data, err := afero.ReadFile(base, "/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, baseHosts, string(data))
}

func TestMissingHostsFileIsCreated(t *testing.T) {
	fsys := afero.NewMemMapFs()
	reg := New(fsys, Options{Path: "/tmp/hosts", BackupDir: "/tmp/bk", Logger: logging.Discard()})

	require.NoError(t, reg.Upsert("kiero.oscp", "10.10.10.5"))
	data, err := afero.ReadFile(fsys, "/tmp/hosts")
	require.NoError(t, err)
	assert.Equal(t, "10.10.10.5 kiero.oscp\n", string(data))
}

func TestParseLine(t *testing.T) {
	l := ParseLine("10.0.0.1\tdc01.oscp  dc01   # domain controller")
	assert.True(t, l.IsEntry())
	assert.Equal(t, "10.0.0.1", l.IP)
	assert.Equal(t, []string{"dc01.oscp", "dc01"}, l.Hostnames)
	assert.Equal(t, "domain controller", l.Comment)
	assert.True(t, l.HasHostname("DC01.OSCP"))

	assert.False(t, ParseLine("# only a comment").IsEntry())
	assert.False(t, ParseLine("").IsEntry())
	assert.False(t, ParseLine("10.0.0.1").IsEntry())
}
