package document

// Field is one named value of a projection, in emission order.
type Field struct {
	Name  string
	Value any
}

// Project returns the ordered fields d emits in mode m. An unknown mode
// projects nothing.
func Project(d Document, m Mode) []Field {
	lay, err := m.layout()
	if err != nil {
		return nil
	}
	return lay.project(d)
}

func storageFields(d Document) []Field {
	f := []Field{{"title", d.Title}}
	f = appendString(f, "subtitle", d.Subtitle)
	f = append(f,
		Field{"date", d.Date},
		Field{"tags", nonNil(d.Tags)},
		Field{"filename", d.Filename},
		Field{"authors", nonNil(d.Authors)},
		Field{"id", d.ID},
		Field{"parentid", d.ParentID},
		Field{"weight", d.Weight},
		Field{"writes", d.Writes},
	)
	f = appendString(f, "background_img", d.BackgroundImg)
	f = appendList(f, "links", d.Links)
	f = appendString(f, "slug", d.Slug)
	return append(f, Field{"body", d.Body})
}

func diskFields(d Document) []Field {
	f := []Field{{"title", d.Title}}
	f = appendString(f, "subtitle", d.Subtitle)
	f = append(f,
		Field{"date", d.Date.String()},
		Field{"tags", nonNil(d.Tags)},
		Field{"authors", nonNil(d.Authors)},
		Field{"id", d.ID},
		Field{"parentid", d.ParentID},
		Field{"weight", d.Weight},
		Field{"writes", d.Writes},
	)
	f = appendString(f, "background_img", d.BackgroundImg)
	f = appendList(f, "links", d.Links)
	return appendString(f, "slug", d.Slug)
}

func humanFields(Document) []Field { return nil }

func appendString(f []Field, name, v string) []Field {
	if v == "" {
		return f
	}
	return append(f, Field{name, v})
}

func appendList(f []Field, name string, v []string) []Field {
	if len(v) == 0 {
		return f
	}
	return append(f, Field{name, v})
}
