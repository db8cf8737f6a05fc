// Package diff computes the delta between two hosts-file snapshots: which names were
// added, which disappeared, and which now point at a different address.
package diff

import (
	"sort"
	"strings"

	"github.com/hakim/examkit/internal/hostsfile"
)

// Binding is one hostname and the address it resolves to
type Binding struct {
	Hostname string
	IP       string
}

// Change is a hostname whose address moved
type Change struct {
	Hostname string
	OldIP    string
	NewIP    string
}

// Result holds the delta between a current and a previous snapshot. All slice fields
// are non-nil so callers can range over them unconditionally.
type Result struct {
	Added   []Binding
	Removed []Binding
	Changed []Change

	CurrentCount  int
	PreviousCount int
}

// Empty reports whether nothing changed
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Bindings flattens hosts lines into hostname -> IP, keyed lowercase. Only names under
// suffix are kept unless suffix is empty. When a name appears on several lines the
// first one wins, matching resolver lookup order.
func Bindings(lines []hostsfile.Line, suffix string) map[string]string {
	out := map[string]string{}
	want := "." + strings.ToLower(suffix)
	for _, l := range lines {
		if !l.IsEntry() {
			continue
		}
		for _, h := range l.Hostnames {
			key := strings.ToLower(h)
			if suffix != "" && !strings.HasSuffix(key, want) {
				continue
			}
			if _, seen := out[key]; !seen {
				out[key] = l.IP
			}
		}
	}
	return out
}

// Compare calculates what changed from previous to current
func Compare(current, previous []hostsfile.Line, suffix string) *Result {
	cur := Bindings(current, suffix)
	prev := Bindings(previous, suffix)

	r := &Result{
		Added:         []Binding{},
		Removed:       []Binding{},
		Changed:       []Change{},
		CurrentCount:  len(cur),
		PreviousCount: len(prev),
	}

	for host, ip := range cur {
		old, ok := prev[host]
		switch {
		case !ok:
			r.Added = append(r.Added, Binding{Hostname: host, IP: ip})
		case old != ip:
			r.Changed = append(r.Changed, Change{Hostname: host, OldIP: old, NewIP: ip})
		}
	}
	for host, ip := range prev {
		if _, ok := cur[host]; !ok {
			r.Removed = append(r.Removed, Binding{Hostname: host, IP: ip})
		}
	}

	sort.Slice(r.Added, func(i, j int) bool { return r.Added[i].Hostname < r.Added[j].Hostname })
	sort.Slice(r.Removed, func(i, j int) bool { return r.Removed[i].Hostname < r.Removed[j].Hostname })
	sort.Slice(r.Changed, func(i, j int) bool { return r.Changed[i].Hostname < r.Changed[j].Hostname })
	return r
}
