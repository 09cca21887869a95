// Package document defines the canonical note record and its three
// serialized shapes.
package document

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notedex/internal/identity"
)

// Document is one note in canonical form. Once built by Parse, ParseFile
// or a legacy conversion it is not mutated; WithMode returns a copy.
type Document struct {
	ID string
	// ParentID points at the revision this document derives from. It is
	// the document's own ID for the root of a lineage.
	ParentID string
	Authors  []string
	Body     string
	// Mode selects the serialized shape. It is never inferred from content.
	Mode          Mode
	Date          Date
	Title         string
	BackgroundImg string
	Links         []string
	Slug          string
	Subtitle      string
	Tags          []string
	Weight        int
	Writes        uint
	Views         int
	Filename      string
}

// WithMode returns a copy of d that serializes in mode m.
func (d Document) WithMode(m Mode) Document {
	d.Mode = m
	return d
}

// Validate checks the construction invariants.
func (d Document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.ParentID, validation.Required),
		validation.Field(&d.Mode, validation.By(func(v any) error {
			if m, _ := v.(Mode); !m.Valid() {
				return errors.New("unknown mode")
			}
			return nil
		})),
	)
}

// AssignIdentity gives a document without an ID a fresh identifier and
// makes it the root of a new lineage. Documents that already carry an ID
// keep it.
func AssignIdentity(d *Document, ids identity.Generator) {
	if d.ID == "" {
		id := identity.OrDefault(ids).Generate()
		d.ID, d.ParentID = id, id
		return
	}
	if d.ParentID == "" {
		d.ParentID = d.ID
	}
}

// normalize replaces nil lists with empty ones.
func (d *Document) normalize() {
	d.Authors = nonNil(d.Authors)
	d.Tags = nonNil(d.Tags)
	d.Links = nonNil(d.Links)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
