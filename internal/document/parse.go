package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/identity"
	"github.com/starford/notedex/internal/parser"
)

// wire is the decoded metadata block, including field aliases.
type wire struct {
	ID            string     `yaml:"id" json:"id"`
	ParentID      string     `yaml:"parentid" json:"parentid"`
	Authors       StringList `yaml:"authors" json:"authors"`
	Author        StringList `yaml:"author" json:"author"`
	Body          string     `yaml:"body" json:"body"`
	Date          *Date      `yaml:"date" json:"date"`
	Title         string     `yaml:"title" json:"title"`
	BackgroundImg string     `yaml:"background_img" json:"background_img"`
	Links         StringList `yaml:"links" json:"links"`
	Slug          string     `yaml:"slug" json:"slug"`
	Subtitle      string     `yaml:"subtitle" json:"subtitle"`
	Tags          StringList `yaml:"tags" json:"tags"`
	Tag           StringList `yaml:"tag" json:"tag"`
	Weight        int        `yaml:"weight" json:"weight"`
	Writes        uint       `yaml:"writes" json:"writes"`
	Views         int        `yaml:"views" json:"views"`
	Filename      string     `yaml:"filename" json:"filename"`
}

func (w wire) date() Date {
	if w.Date == nil {
		return 0
	}
	return *w.Date
}

func (w wire) document() Document {
	authors := w.Authors
	if authors == nil {
		authors = w.Author
	}
	tags := w.Tags
	if tags == nil {
		tags = w.Tag
	}
	d := Document{
		ID:            w.ID,
		ParentID:      w.ParentID,
		Authors:       authors,
		Body:          w.Body,
		Date:          w.date(),
		Title:         w.Title,
		BackgroundImg: w.BackgroundImg,
		Links:         w.Links,
		Slug:          w.Slug,
		Subtitle:      w.Subtitle,
		Tags:          tags,
		Weight:        w.Weight,
		Writes:        w.Writes,
		Views:         w.Views,
		Filename:      w.Filename,
	}
	d.normalize()
	return d
}

// Parse builds a Document from note text: frontmatter metadata, a separator
// line, then the body. A document without an id gets one from ids (the
// process ULID generator when ids is nil).
//
// The date field is required. Errors wrap apperr.ErrParse,
// apperr.ErrDateParse or apperr.ErrTagFormat.
func Parse(data []byte, ids identity.Generator) (*Document, error) {
	meta, body, err := parser.Split(data)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	var w wire
	if err := yaml.Unmarshal(meta, &w); err != nil {
		if errors.Is(err, apperr.ErrDateParse) || errors.Is(err, apperr.ErrTagFormat) {
			return nil, fmt.Errorf("document: decode metadata: %w", err)
		}
		return nil, fmt.Errorf("document: decode metadata: %w: %v", apperr.ErrParse, err)
	}

	if w.Date == nil {
		return nil, fmt.Errorf("document: decode metadata: %w: missing date", apperr.ErrDateParse)
	}

	d := w.document()
	d.Body = body
	AssignIdentity(&d, ids)

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("document: %w: %v", apperr.ErrParse, err)
	}
	return &d, nil
}

// ParseFile is Parse for a note read from path; the file name replaces any
// filename carried in the metadata.
func ParseFile(path string, data []byte, ids identity.Generator) (*Document, error) {
	d, err := Parse(data, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Filename = filepath.Base(path)
	return d, nil
}

// UnmarshalJSON decodes the storage-shaped JSON returned by the search
// backend. Omitted optional fields stay empty; no identity is assigned.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("document: decode json: %w", err)
	}
	*d = w.document()
	return nil
}
