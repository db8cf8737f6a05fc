// Package refstore keeps the operator's flat reference documents: cheat sheet
// commands, bookmarks and repository links, each a title -> text/URL map.
package refstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/jsonfile"
	"github.com/spf13/afero"
)

// Kind names a reference document
type Kind string

const (
	Cheatsheet Kind = "cheatsheet"
	Bookmarks  Kind = "bookmarks"
	Githubs    Kind = "githubs"
)

// Kinds lists every document kind
var Kinds = []Kind{Cheatsheet, Bookmarks, Githubs}

// ParseKind validates a kind from a URL or flag
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// FileName is the document's file under the dashboard data dir
func (k Kind) FileName() string { return string(k) + ".json" }

func (k Kind) holdsURLs() bool { return k != Cheatsheet }

func (k Kind) defaults() map[string]string {
	if k == Cheatsheet {
		return map[string]string{
			"Full NMAP scan": "sudo nmap -sS -sV -sC -Pn -n -p- -T4 <IP> | sudo tee ip.nmap",
		}
	}
	return map[string]string{}
}

// Entry is one title/value pair
type Entry struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Store is one reference document
type Store struct {
	fs   afero.Fs
	path string
	kind Kind

	mu      sync.Mutex
	entries map[string]string
}

// Open loads the document for kind at path, seeding defaults if it does not exist
func Open(fsys afero.Fs, path string, kind Kind) (*Store, error) {
	s := &Store{fs: fsys, path: path, kind: kind}
	if err := jsonfile.LoadOrInit(fsys, path, &s.entries, kind.defaults()); err != nil {
		return nil, err
	}
	if s.entries == nil {
		s.entries = map[string]string{}
	}
	return s, nil
}

// Kind returns the document kind
func (s *Store) Kind() Kind { return s.kind }

// Set adds or replaces an entry. URL documents get an https:// scheme when none is given.
func (s *Store) Set(title, value string) (Entry, error) {
	title, value = strings.TrimSpace(title), strings.TrimSpace(value)
	if title == "" || value == "" {
		return Entry{}, failure.Invalid("set "+string(s.kind), "title and value are required")
	}
	if s.kind.holdsURLs() {
		value = NormalizeURL(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[title] = value
	if err := jsonfile.Write(s.fs, s.path, s.entries); err != nil {
		return Entry{}, fmt.Errorf("saving %s: %w", s.kind, err)
	}
	return Entry{Title: title, Value: value}, nil
}

// Delete removes an entry, reporting whether it existed
func (s *Store) Delete(title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[title]; !ok {
		return false, nil
	}
	delete(s.entries, title)
	if err := jsonfile.Write(s.fs, s.path, s.entries); err != nil {
		return true, fmt.Errorf("saving %s: %w", s.kind, err)
	}
	return true, nil
}

// All returns entries sorted by title
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for title, value := range s.entries {
		out = append(out, Entry{Title: title, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// NormalizeURL prefixes https:// unless the value already has an http(s) scheme
func NormalizeURL(u string) string {
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}
