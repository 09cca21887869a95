package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/notedex/internal/dates"
	"github.com/starford/notedex/internal/document"
)

func sampleHits(t *testing.T) []document.Document {
	t.Helper()
	secs, err := dates.ParseUnix("2021-01-02")
	if err != nil {
		t.Fatal(err)
	}
	return []document.Document{
		{ID: "a", ParentID: "a", Title: "Vim tricks", Subtitle: "motions", Authors: []string{"ada"},
			Tags: []string{"vim", "editor"}, Date: document.Date(secs), Body: "# Motions\n\nUse `w`.\n"},
		{ID: "b", ParentID: "b", Title: "Bash"},
	}
}

func TestHitsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWidth(&buf, false, 80)
	if err := p.Hits(sampleHits(t)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{" 1. Vim tricks · motions", "ada  2021-01-02  #vim #editor  a", " 2. Bash", "    b\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output contains escape codes:\n%q", got)
	}
}

func TestHitsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWithWidth(&buf, false, 80).Hits(nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "no matches\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestBodyPlain(t *testing.T) {
	var buf bytes.Buffer
	hits := sampleHits(t)
	if err := NewWithWidth(&buf, false, 80).Body(hits[0]); err != nil {
		t.Fatal(err)
	}
	if buf.String() != hits[0].Body {
		t.Errorf("body = %q", buf.String())
	}
}

func TestBodyStyled(t *testing.T) {
	var buf bytes.Buffer
	hits := sampleHits(t)
	if err := NewWithWidth(&buf, true, 60).Body(hits[0]); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"Vim tricks", "Motions"} {
		if !strings.Contains(got, want) {
			t.Errorf("styled body missing %q:\n%s", want, got)
		}
	}
}

func TestNewNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	if p.Styled() {
		t.Error("buffer output should not be styled")
	}
}
