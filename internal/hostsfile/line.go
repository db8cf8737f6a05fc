package hostsfile

import (
	"strings"
)

// Line is one line of a hosts file. Comment-only and blank lines have an empty IP
// and are carried through untouched.
type Line struct {
	Raw       string
	IP        string
	Hostnames []string
	Comment   string

	dirty bool
}

// ParseLine splits a raw hosts line into address, hostnames and trailing comment
func ParseLine(raw string) Line {
	l := Line{Raw: raw}

	body := raw
	if i := strings.IndexByte(body, '#'); i >= 0 {
		l.Comment = strings.TrimSpace(body[i+1:])
		body = body[:i]
	}

	fields := strings.Fields(body)
	if len(fields) < 2 {
		// A bare address with no names is not a binding
		return l
	}
	l.IP = fields[0]
	l.Hostnames = fields[1:]
	return l
}

// Parse splits hosts file content into lines
func Parse(data []byte) []Line {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	raws := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raws))
	for _, raw := range raws {
		lines = append(lines, ParseLine(strings.TrimRight(raw, "\r")))
	}
	return lines
}

// IsEntry reports whether the line binds an address to at least one name
func (l Line) IsEntry() bool {
	return l.IP != "" && len(l.Hostnames) > 0
}

// HasHostname reports whether name is bound on this line (case-insensitive)
func (l Line) HasHostname(name string) bool {
	for _, h := range l.Hostnames {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// withoutHostnames returns the line minus every hostname drop matches.
// ok is false when no hostname remains and the line should be removed.
func (l Line) withoutHostnames(drop func(string) bool) (out Line, removed int, ok bool) {
	kept := make([]string, 0, len(l.Hostnames))
	for _, h := range l.Hostnames {
		if drop(h) {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	if removed == 0 {
		return l, 0, true
	}
	if len(kept) == 0 {
		return Line{}, removed, false
	}
	l.Hostnames = kept
	l.dirty = true
	return l, removed, true
}

// String renders the line. Lines that were never edited keep their original text.
func (l Line) String() string {
	if !l.dirty {
		return l.Raw
	}
	s := l.IP + " " + strings.Join(l.Hostnames, " ")
	if l.Comment != "" {
		s += " # " + l.Comment
	}
	return s
}

func newEntry(ip, fqdn string) Line {
	return Line{IP: ip, Hostnames: []string{fqdn}, dirty: true}
}

func render(lines []Line) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
