package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/starford/notedex/internal/ingest"
)

const currentNote = "title: Vim tricks\ntags: [vim]\ndate: 2021-01-02\n---\nUse :wq.\n"

const legacyNote = "---\nauthor: ada\ndate: 2020-05-06\ntags: [old]\ntitle: Old Archive\n---\nOld body.\n"

// testConfig points the commands at a config with a temporary ledger.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "notedex.yaml")
	content := "app:\n  log_level: error\nledger:\n  path: " + filepath.Join(dir, "ledger.db") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out)
	argv := append([]string{"notedex", "--config", testConfig(t)}, args...)
	err := app.Run(context.Background(), argv)
	return out.String(), err
}

func TestRenderStorageFromStdin(t *testing.T) {
	out, err := runApp(t, currentNote, "render", "-")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"title: Vim tricks", "parentid:", "---\nUse :wq.\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHumanMode(t *testing.T) {
	out, err := runApp(t, currentNote, "render", "--mode", "human")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Use :wq.\n" {
		t.Errorf("human output = %q", out)
	}
}

func TestRenderBadMode(t *testing.T) {
	if _, err := runApp(t, currentNote, "render", "--mode", "loud"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRenderParseError(t *testing.T) {
	_, err := runApp(t, "no metadata at all", "render")
	if err == nil || !strings.Contains(err.Error(), "<stdin>") {
		t.Fatalf("err = %v", err)
	}
}

func TestConvertToStdout(t *testing.T) {
	out, err := runApp(t, legacyNote, "convert")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"title: Old Archive", "- ada", "writes: 1", "---\nOld body.\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertToDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "archive.md")
	if err := os.WriteFile(src, []byte(legacyNote), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "out")

	if _, err := runApp(t, "", "convert", "--out", outDir, src); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "archive.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "title: Old Archive") {
		t.Errorf("note file = %s", data)
	}

	if _, err := runApp(t, "", "convert", "--out", outDir, src); err == nil {
		t.Error("second convert without --force should fail")
	}
	if _, err := runApp(t, "", "convert", "--out", outDir, "--force", src); err != nil {
		t.Errorf("convert with --force: %v", err)
	}
}

func TestIngestRequiresPatterns(t *testing.T) {
	if _, err := runApp(t, "", "ingest"); err == nil {
		t.Fatal("expected error without patterns")
	}
}

func TestStatusPrinter(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printStatus := statusPrinter(&buf)
	printStatus(ingest.Event{Kind: ingest.EventSubmitted, Path: "a.md", Title: "A"})
	printStatus(ingest.Event{Kind: ingest.EventSkipped, Path: "b.md"})
	printStatus(ingest.Event{Kind: ingest.EventFailed, Path: "c.md", Error: "no metadata found"})

	want := "✅ a.md A\n· b.md unchanged\n❌ c.md no metadata found\n"
	if buf.String() != want {
		t.Errorf("status lines = %q, want %q", buf.String(), want)
	}
}
