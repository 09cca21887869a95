// Package legacy reads notes written in the older single-author schema and
// converts them to the current Document.
package legacy

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adrg/frontmatter"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/dates"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
)

// Record is a note in the legacy schema: one author, a flat tag list, a
// free-text date and no identity.
type Record struct {
	Author   string   `yaml:"author" toml:"author" json:"author"`
	Date     string   `yaml:"date" toml:"date" json:"date"`
	Tags     []string `yaml:"tags" toml:"tags" json:"tags"`
	Title    string   `yaml:"title" toml:"title" json:"title"`
	Subtitle string   `yaml:"subtitle" toml:"subtitle" json:"subtitle"`
	Body     string   `yaml:"-" toml:"-" json:"-"`
	Filename string   `yaml:"-" toml:"-" json:"-"`
}

// Parse reads a legacy note. The frontmatter may be fenced YAML (---),
// TOML (+++) or JSON (;;;) and must open the file.
func Parse(data []byte) (*Record, error) {
	var rec Record
	body, err := frontmatter.MustParse(bytes.NewReader(data), &rec)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return nil, fmt.Errorf("legacy: %w", apperr.ErrParse)
		}
		return nil, fmt.Errorf("legacy: %w: %v", apperr.ErrParse, err)
	}
	rec.Body = string(body)
	return &rec, nil
}

// ParseFile is Parse for a note read from path.
func ParseFile(path string, data []byte) (*Record, error) {
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Filename = filepath.Base(path)
	return rec, nil
}

// Convert maps rec onto a Document. The result always starts a new lineage
// and has Writes set to 1. The date goes through the same normalizer as
// current notes and is required; a failure wraps apperr.ErrDateParse.
func Convert(rec Record, ids identity.Generator) (*document.Document, error) {
	secs, err := dates.ParseUnix(rec.Date)
	if err != nil {
		return nil, fmt.Errorf("legacy: convert: %w", err)
	}
	date := document.Date(secs)

	authors := []string{}
	if rec.Author != "" {
		authors = []string{rec.Author}
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}

	id := identity.OrDefault(ids).Generate()
	return &document.Document{
		ID:       id,
		ParentID: id,
		Authors:  authors,
		Body:     rec.Body,
		Date:     date,
		Writes:   1,
		Tags:     tags,
		Title:    rec.Title,
		Subtitle: rec.Subtitle,
		Filename: rec.Filename,
		Links:    []string{},
	}, nil
}

// ConvertFile parses and converts the legacy note at path.
func ConvertFile(path string, data []byte, ids identity.Generator) (*document.Document, error) {
	rec, err := ParseFile(path, data)
	if err != nil {
		return nil, err
	}
	d, err := Convert(*rec, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
