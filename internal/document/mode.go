package document

import (
	"fmt"
	"strings"
)

// Mode selects which projection of a Document is serialized.
type Mode int

// The three serialization modes. ModeStorage is the zero value.
const (
	// ModeStorage is the search index payload: every field plus body and filename.
	ModeStorage Mode = iota
	// ModeDisk is the note-file metadata: no body, no filename, formatted date.
	ModeDisk
	// ModeHuman is the body text alone.
	ModeHuman
)

// modeLayout describes how a mode is laid out as text.
type modeLayout struct {
	name    string
	project func(Document) []Field
	// envelope renders the projected fields as a metadata block.
	envelope bool
	// trailer appends the separator line and raw body after the block.
	trailer bool
}

var modes = [...]modeLayout{
	ModeStorage: {name: "storage", project: storageFields, envelope: true, trailer: true},
	ModeDisk:    {name: "disk", project: diskFields, envelope: true},
	ModeHuman:   {name: "human", project: humanFields},
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < len(modes)
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modes[m].name
}

func (m Mode) layout() (modeLayout, error) {
	if !m.Valid() {
		return modeLayout{}, fmt.Errorf("unknown mode %d", int(m))
	}
	return modes[m], nil
}

// ParseMode maps "storage", "disk" or "human" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, l := range modes {
		if strings.EqualFold(strings.TrimSpace(s), l.name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("document: unknown mode %q (want storage, disk or human)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("document: unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
