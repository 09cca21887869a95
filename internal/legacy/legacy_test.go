package legacy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
)

func counter() identity.Generator {
	n := 0
	return identity.GeneratorFunc(func() string {
		n++
		return "gen-" + string(rune('0'+n))
	})
}

func TestConvert_SingleAuthorRecord(t *testing.T) {
	rec := Record{Author: "Alice", Date: "2021-01-02", Tags: []string{"a", "b"}}
	d, err := Convert(rec, counter())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !reflect.DeepEqual(d.Authors, []string{"Alice"}) {
		t.Errorf("authors = %v", d.Authors)
	}
	if d.Writes != 1 {
		t.Errorf("writes = %d, want 1", d.Writes)
	}
	if d.ID != "gen-1" || d.ParentID != d.ID {
		t.Errorf("identity = (%q, %q)", d.ID, d.ParentID)
	}
	if d.Date != 1609545600 {
		t.Errorf("date = %d", d.Date)
	}
	if !reflect.DeepEqual(d.Tags, []string{"a", "b"}) {
		t.Errorf("tags = %v", d.Tags)
	}
}

func TestConvert_AlwaysFreshIdentity(t *testing.T) {
	ids := counter()
	rec := Record{Author: "Alice", Date: "2021-01-02", Title: "T"}
	a, _ := Convert(rec, ids)
	b, _ := Convert(rec, ids)
	if a.ID == b.ID {
		t.Errorf("two conversions share id %q", a.ID)
	}
}

func TestConvert_CopiesFields(t *testing.T) {
	rec := Record{
		Author:   "Alice",
		Date:     "Jan 2, 2021",
		Title:    "Title",
		Subtitle: "Sub",
		Body:     "body\n",
		Filename: "note.md",
	}
	d, err := Convert(rec, counter())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if d.Title != "Title" || d.Subtitle != "Sub" || d.Body != "body\n" || d.Filename != "note.md" {
		t.Errorf("fields not copied: %#v", *d)
	}
	if d.Tags == nil || d.Links == nil {
		t.Error("lists should be non-nil")
	}
	if err := d.Validate(); err != nil {
		t.Errorf("converted document invalid: %v", err)
	}
}

func TestConvert_MissingDate(t *testing.T) {
	_, err := Convert(Record{Author: "A", Title: "T"}, counter())
	if !errors.Is(err, apperr.ErrDateParse) {
		t.Errorf("err = %v, want ErrDateParse", err)
	}
}

func TestConvert_BadDate(t *testing.T) {
	_, err := Convert(Record{Author: "A", Date: "someday"}, counter())
	if !errors.Is(err, apperr.ErrDateParse) {
		t.Errorf("err = %v, want ErrDateParse", err)
	}
}

func TestConvert_EmptyAuthor(t *testing.T) {
	d, err := Convert(Record{Title: "T", Date: "2021-01-02"}, counter())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(d.Authors) != 0 || d.Authors == nil {
		t.Errorf("authors = %#v, want empty list", d.Authors)
	}
}

func TestParseFile_YAML(t *testing.T) {
	data := []byte("---\nauthor: Alice\ndate: 2021-01-02\ntags:\n  - a\n  - b\ntitle: Old note\n---\nOld body\n")
	rec, err := ParseFile("/vault/old.md", data)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := Record{
		Author:   "Alice",
		Date:     "2021-01-02",
		Tags:     []string{"a", "b"},
		Title:    "Old note",
		Body:     "Old body\n",
		Filename: "old.md",
	}
	if !reflect.DeepEqual(*rec, want) {
		t.Errorf("record = %#v\nwant %#v", *rec, want)
	}
}

func TestParse_TOML(t *testing.T) {
	data := []byte("+++\nauthor = \"Bob\"\ndate = \"2021-01-02\"\ntitle = \"T\"\ntags = [\"x\"]\n+++\nbody")
	rec, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Author != "Bob" || rec.Title != "T" || !reflect.DeepEqual(rec.Tags, []string{"x"}) {
		t.Errorf("record = %#v", *rec)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	_, err := Parse([]byte("# heading only\n"))
	if !errors.Is(err, apperr.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestConvertFile_RendersAsCurrentSchema(t *testing.T) {
	data := []byte("---\nauthor: Alice\ndate: 2021-01-02\ntitle: Old\n---\nBody")
	d, err := ConvertFile("old.md", data, counter())
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	text, err := d.WithMode(document.ModeStorage).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	back, err := document.Parse([]byte(text), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.ID != d.ID || back.Writes != 1 || !reflect.DeepEqual(back.Authors, []string{"Alice"}) {
		t.Errorf("re-parsed document = %#v", *back)
	}
}
