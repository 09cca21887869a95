package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
	"github.com/starford/notedex/internal/ingest"
	"github.com/starford/notedex/internal/search"
	"github.com/starford/notedex/internal/testutil"
)

func fixedID(id string) identity.Generator {
	return identity.GeneratorFunc(func() string { return id })
}

func TestRender(t *testing.T) {
	svc := NewService(testutil.NewMemSearch(), WithIdentity(fixedID("x1")))
	d, err := svc.Render([]byte("title: Hello\ntags: go\ndate: 2021-01-02\n---\nBody\n"), document.ModeHuman)
	require.NoError(t, err)
	assert.Equal(t, document.ModeHuman, d.Mode)
	assert.Equal(t, "Body\n", d.String())
	assert.Equal(t, "x1", d.ID)
}

func TestRender_ParseError(t *testing.T) {
	svc := NewService(testutil.NewMemSearch())
	_, err := svc.Render([]byte("no separator"), document.ModeStorage)
	require.ErrorIs(t, err, apperr.ErrParse)
	assert.True(t, IsDocumentError(err))
}

func TestConvertLegacy(t *testing.T) {
	svc := NewService(testutil.NewMemSearch(), WithIdentity(fixedID("L1")))
	d, err := svc.ConvertLegacy([]byte("---\nauthor: Alice\ndate: 2021-01-02\ntitle: Old\n---\nx\n"), document.ModeDisk)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, d.Authors)
	assert.Equal(t, "L1", d.ParentID)
	assert.Contains(t, d.String(), "2021-01-02T00:00:00Z")
}

func TestConvertLegacy_BadDate(t *testing.T) {
	svc := NewService(testutil.NewMemSearch())
	_, err := svc.ConvertLegacy([]byte("---\nauthor: A\ndate: whenever\ntitle: T\n---\n"), document.ModeStorage)
	assert.ErrorIs(t, err, apperr.ErrDateParse)
	assert.True(t, IsDocumentError(err))
}

func TestSaveLegacy(t *testing.T) {
	dir, store := testutil.TestStore(t)
	svc := NewService(testutil.NewMemSearch(), WithStore(store), WithIdentity(fixedID("L1")))

	path, d, err := svc.SaveLegacy([]byte("---\nauthor: A\ndate: 2021-01-02\ntitle: My Old Note\n---\nbody\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "my-old-note.md", path)
	assert.Equal(t, "My Old Note", d.Title)

	data, err := os.ReadFile(filepath.Join(dir, path))
	require.NoError(t, err)
	back, err := document.Parse(data, nil)
	require.NoError(t, err)
	assert.Equal(t, "L1", back.ID)
	assert.Equal(t, "body\n", back.Body)
}

func TestSaveLegacy_NoStore(t *testing.T) {
	svc := NewService(testutil.NewMemSearch())
	_, _, err := svc.SaveLegacy([]byte("---\ntitle: T\n---\n"), false)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSearch(t *testing.T) {
	mem := testutil.NewMemSearch(
		document.Document{ID: "1", Title: "Vim motions", Tags: []string{"vim"}},
		document.Document{ID: "2", Title: "Bash loops", Tags: []string{"bash"}},
	)
	svc := NewService(mem)
	hits, err := svc.Search(context.Background(), search.Query{Filter: "vim | !bash"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Vim motions", hits[0].Title)

	_, err = svc.Search(context.Background(), search.Query{Filter: "tags:"})
	assert.ErrorIs(t, err, search.ErrBadFilter)
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("title: A\ndate: 2021-01-02\n---\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("oops"), 0o644))

	mem := testutil.NewMemSearch()
	db := testutil.TestLedger(t)
	in := ingest.New(mem, ingest.WithLedger(db), ingest.WithLogger(testLogger()))
	svc := NewService(mem, WithIngester(in), WithLedger(db))

	rep, err := svc.Ingest(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)
	assert.Equal(t, 1, rep.Failed)

	failed, err := svc.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b.md", filepath.Base(failed[0].Path))
}

func TestIngestWithinRoots(t *testing.T) {
	notes := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "sub", "a.md"), []byte("title: A\ndate: 2021-01-02\n---\n"), 0o644))
	private := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(private, "p.md"), []byte("title: P\ndate: 2021-01-02\n---\n"), 0o644))

	mem := testutil.NewMemSearch()
	in := ingest.New(mem, ingest.WithLogger(testLogger()))
	svc := NewService(mem, WithIngester(in), WithIngestRoots([]string{notes}))

	rep, err := svc.IngestWithinRoots(context.Background(), []string{filepath.Join(notes, "sub")})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)

	_, err = svc.IngestWithinRoots(context.Background(), []string{private})
	assert.ErrorIs(t, err, discovery.ErrOutsideRoots)
	assert.Equal(t, 1, mem.Len())

	_, err = NewService(mem, WithIngester(in)).IngestWithinRoots(context.Background(), []string{notes})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestDisabledCollaborators(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Ingest(context.Background(), []string{"x"})
	assert.True(t, errors.Is(err, ErrDisabled))
	_, err = svc.Failed()
	assert.True(t, errors.Is(err, ErrDisabled))
	_, err = svc.Search(context.Background(), search.Query{})
	assert.True(t, errors.Is(err, ErrDisabled))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
