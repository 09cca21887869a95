package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
	"github.com/starford/notedex/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sequence() identity.Generator {
	var mu sync.Mutex
	n := 0
	return identity.GeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	})
}

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRun_SubmitsAndContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeNote(t, dir, "good.md", "title: Good\ntags: go\ndate: 2021-01-02\n---\nbody\n")
	bad := writeNote(t, dir, "bad.md", "# no metadata here\n")
	missing := filepath.Join(dir, "missing.md")

	client := testutil.NewMemSearch()
	var mu sync.Mutex
	events := map[string]string{}
	in := New(client,
		WithLogger(quietLogger()),
		WithIdentity(sequence()),
		WithEventCallback(func(ev Event) {
			mu.Lock()
			events[filepath.Base(ev.Path)] = ev.Kind
			mu.Unlock()
		}),
	)

	rep, err := in.Run(context.Background(), []string{good, bad, missing})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)
	assert.Equal(t, 2, rep.Failed)
	require.Len(t, rep.Failures, 2)
	assert.Equal(t, bad, rep.Failures[0].Path)
	assert.Contains(t, rep.Failures[0].Error, "no metadata found")

	d, ok := client.ByTitle("Good")
	require.True(t, ok)
	assert.Equal(t, "good.md", d.Filename)
	assert.Equal(t, []string{"go"}, d.Tags)
	assert.Equal(t, d.ID, d.ParentID)

	assert.Equal(t, map[string]string{
		"good.md":    EventSubmitted,
		"bad.md":     EventFailed,
		"missing.md": EventFailed,
	}, events)
}

func TestRun_ClientFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	a := writeNote(t, dir, "a.md", "title: A\ndate: 2021-01-02\n---\n")
	b := writeNote(t, dir, "b.md", "title: B\ndate: 2021-01-02\n---\n")

	client := testutil.NewMemSearch()
	client.Fail = func(d document.Document) error {
		if d.Title == "A" {
			return fmt.Errorf("meili: %w", apperr.ErrUnavailable)
		}
		return nil
	}
	db := testutil.TestLedger(t)
	in := New(client, WithLogger(quietLogger()), WithLedger(db))

	rep, err := in.Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)
	assert.Equal(t, 1, rep.Failed)

	failed, err := db.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a, failed[0].Path)
	assert.Contains(t, failed[0].Error, "unavailable")
}

func TestRun_ChangedOnlySkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	p := writeNote(t, dir, "n.md", "title: N\ndate: 2021-01-02\n---\nv1\n")

	client := testutil.NewMemSearch()
	db := testutil.TestLedger(t)
	in := New(client, WithLogger(quietLogger()), WithLedger(db), WithChangedOnly(true))

	rep, err := in.Run(context.Background(), []string{p})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)

	rep, err = in.Run(context.Background(), []string{p})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Submitted)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, client.Calls())

	writeNote(t, dir, "n.md", "title: N\ndate: 2021-01-02\n---\nv2\n")
	rep, err = in.Run(context.Background(), []string{p})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Submitted)
}

func TestRun_ReusesIDForSamePath(t *testing.T) {
	dir := t.TempDir()
	p := writeNote(t, dir, "n.md", "title: N\ndate: 2021-01-02\n---\nv1\n")

	client := testutil.NewMemSearch()
	in := New(client, WithLogger(quietLogger()), WithLedger(testutil.TestLedger(t)), WithIdentity(sequence()))

	_, err := in.Run(context.Background(), []string{p})
	require.NoError(t, err)
	writeNote(t, dir, "n.md", "title: N\ndate: 2021-01-02\n---\nv2\n")
	_, err = in.Run(context.Background(), []string{p})
	require.NoError(t, err)

	assert.Equal(t, 1, client.Len(), "re-ingesting a file without id should update in place")
	d, _ := client.ByTitle("N")
	assert.Equal(t, "v2\n", d.Body)
	assert.Equal(t, "id-001", d.ID)
}

func TestRun_Legacy(t *testing.T) {
	dir := t.TempDir()
	p := writeNote(t, dir, "old.md", "---\nauthor: Alice\ndate: 2021-01-02\ntitle: Old\n---\nOld body\n")

	client := testutil.NewMemSearch()
	in := New(client, WithLogger(quietLogger()), WithLegacy(true), WithIdentity(sequence()))
	rep, err := in.Run(context.Background(), []string{p})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Submitted)

	d, ok := client.ByTitle("Old")
	require.True(t, ok)
	assert.Equal(t, []string{"Alice"}, d.Authors)
	assert.Equal(t, uint(1), d.Writes)
	assert.Equal(t, document.Date(1609545600), d.Date)
	assert.Equal(t, "old.md", d.Filename)
}

func TestRun_ManyFilesBoundedWorkers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 25; i++ {
		paths = append(paths, writeNote(t, dir, fmt.Sprintf("n%02d.md", i), fmt.Sprintf("title: Note %d\ndate: 2021-01-02\n---\n", i)))
	}
	client := testutil.NewMemSearch()
	in := New(client, WithLogger(quietLogger()), WithWorkers(3))
	rep, err := in.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 25, rep.Submitted)
	assert.Equal(t, 25, client.Len())
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	p := writeNote(t, dir, "n.md", "title: N\ndate: 2021-01-02\n---\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testutil.NewMemSearch(), WithLogger(quietLogger())).Run(ctx, []string{p})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "title: A\ndate: 2021-01-02\n---\n")
	writeNote(t, dir, "sub/b.md", "title: B\ndate: 2021-01-02\n---\n")
	in := New(testutil.NewMemSearch())
	paths, err := in.Paths([]string{dir})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestWatch_IngestsNewAndChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "first.md", "title: First\ndate: 2021-01-02\n---\n")

	client := testutil.NewMemSearch()
	in := New(client, WithLogger(quietLogger()), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Watch(ctx, []string{dir}) }()

	require.Eventually(t, func() bool {
		_, ok := client.ByTitle("First")
		return ok
	}, 5*time.Second, 20*time.Millisecond, "initial file not ingested")

	writeNote(t, dir, "second.md", "title: Second\ndate: 2021-01-02\n---\n")
	writeNote(t, dir, "skip.txt", "title: Text\ndate: 2021-01-02\n---\n")
	require.Eventually(t, func() bool {
		_, ok := client.ByTitle("Second")
		return ok
	}, 5*time.Second, 20*time.Millisecond, "new file not ingested")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	time.Sleep(100 * time.Millisecond)
	writeNote(t, dir, "nested/third.md", "title: Third\ndate: 2021-01-02\n---\n")
	require.Eventually(t, func() bool {
		_, ok := client.ByTitle("Third")
		return ok
	}, 5*time.Second, 20*time.Millisecond, "file in new directory not ingested")

	_, ok := client.ByTitle("Text")
	assert.False(t, ok)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
