// Package testutil provides shared test helpers: temporary ledgers and
// output directories, and an in-memory search backend.
package testutil

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/ledger"
	"github.com/starford/notedex/internal/search"
	"github.com/starford/notedex/internal/storage"
)

// TestLedger creates a temporary ledger database that is closed on cleanup.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary output directory with a storage provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// MemSearch is an in-memory search.Client keyed by document id. Search
// matches the query as a case-insensitive substring of title or body and
// honours filter terms on tags and authors.
type MemSearch struct {
	mu    sync.Mutex
	docs  map[string]document.Document
	calls int

	// Fail, when set, is consulted for every submitted document.
	Fail func(document.Document) error
}

// NewMemSearch returns an empty MemSearch.
func NewMemSearch(docs ...document.Document) *MemSearch {
	m := &MemSearch{docs: map[string]document.Document{}}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *MemSearch) AddDocuments(_ context.Context, docs []document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, d := range docs {
		if m.Fail != nil {
			if err := m.Fail(d); err != nil {
				return err
			}
		}
		m.docs[d.ID] = d.WithMode(document.ModeStorage)
	}
	return nil
}

func (m *MemSearch) Search(_ context.Context, q search.Query) ([]document.Document, error) {
	f, err := search.ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(q.Query)
	out := []document.Document{}
	for _, d := range m.docs {
		text := strings.ToLower(d.Title + "\n" + d.Body)
		if needle != "" && !strings.Contains(text, needle) {
			continue
		}
		if !f.Empty() && !matches(f, d) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Calls returns the number of AddDocuments calls.
func (m *MemSearch) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Len returns the number of stored documents.
func (m *MemSearch) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// ByTitle returns the first stored document with the given title.
func (m *MemSearch) ByTitle(title string) (document.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Title == title {
			return d, true
		}
	}
	return document.Document{}, false
}

func matches(f search.Filter, d document.Document) bool {
	for _, group := range f {
		ok := true
		for _, t := range group {
			if contains(field(d, t.Field), t.Value) == t.Negate {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func field(d document.Document, name string) []string {
	switch name {
	case "tags":
		return d.Tags
	case "authors":
		return d.Authors
	case "title":
		return []string{d.Title}
	default:
		return nil
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var _ search.Client = (*MemSearch)(nil)
