package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/parser"
)

// NoteText renders d as a note file: the Disk metadata block, the
// separator line and the body. The result parses back with document.Parse.
func NoteText(d document.Document) ([]byte, error) {
	meta, err := d.WithMode(document.ModeDisk).Render()
	if err != nil {
		return nil, fmt.Errorf("storage: render note: %w", err)
	}
	return []byte(meta + parser.Separator + d.Body), nil
}

// NoteName returns the file name for d: its filename when set, otherwise
// the slug of its title, otherwise its id.
func NoteName(d document.Document) string {
	if name := filepath.Base(strings.TrimSpace(d.Filename)); name != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	base := slug.Make(d.Title)
	if base == "" {
		base = d.ID
	}
	return base + ".md"
}

// WriteNote stores d under NoteName(d). Without overwrite an existing file
// is an error wrapping os.ErrExist.
func (f *FS) WriteNote(d document.Document, overwrite bool) (string, error) {
	name := NoteName(d)
	if !overwrite {
		exists, err := f.Exists(name)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("storage: %s: %w", name, os.ErrExist)
		}
	}
	text, err := NoteText(d)
	if err != nil {
		return "", err
	}
	if err := f.Write(name, text); err != nil {
		return "", err
	}
	return name, nil
}

var _ Provider = (*FS)(nil)
