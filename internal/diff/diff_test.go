package diff

import (
	"testing"

	"github.com/hakim/examkit/internal/hostsfile"
	"github.com/stretchr/testify/assert"
)

const previous = `127.0.0.1 localhost
# exam
10.10.10.5 kiero.oscp
10.10.10.6 berlin.oscp
10.10.10.10 dc01.oscp
192.168.1.9 box.lab
`

const current = `127.0.0.1 localhost
# exam
10.10.10.5 kiero.oscp
10.10.10.60 berlin.oscp
10.10.10.11 ms01.oscp
192.168.1.9 box.lab
`

func TestCompareWithSuffix(t *testing.T) {
	r := Compare(hostsfile.Parse([]byte(current)), hostsfile.Parse([]byte(previous)), "oscp")

	assert.Equal(t, []Binding{{Hostname: "ms01.oscp", IP: "10.10.10.11"}}, r.Added)
	assert.Equal(t, []Binding{{Hostname: "dc01.oscp", IP: "10.10.10.10"}}, r.Removed)
	assert.Equal(t, []Change{{Hostname: "berlin.oscp", OldIP: "10.10.10.6", NewIP: "10.10.10.60"}}, r.Changed)
	assert.Equal(t, 3, r.CurrentCount)
	assert.Equal(t, 3, r.PreviousCount)
	assert.False(t, r.Empty())
}

func TestCompareAllNames(t *testing.T) {
	r := Compare(hostsfile.Parse([]byte(current)), nil, "")
	assert.Len(t, r.Added, 5)
	assert.Empty(t, r.Removed)
	assert.Equal(t, 0, r.PreviousCount)
}

func TestCompareIdentical(t *testing.T) {
	lines := hostsfile.Parse([]byte(previous))
	r := Compare(lines, lines, "")
	assert.True(t, r.Empty())
	assert.NotNil(t, r.Added)
}

func TestBindingsFirstWinsAndCaseFolds(t *testing.T) {
	lines := hostsfile.Parse([]byte("10.0.0.1 DC01.oscp\n10.0.0.2 dc01.oscp\n10.0.0.3 notoscp\n"))
	assert.Equal(t, map[string]string{"dc01.oscp": "10.0.0.1"}, Bindings(lines, "OSCP"))
}
