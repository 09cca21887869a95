package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/dates"
)

// StringList accepts either a single string or a list of strings and
// always holds a list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.AliasNode:
		return l.UnmarshalYAML(n.Alias)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			*l = nil
			return nil
		}
		if !isText(n) {
			return fmt.Errorf("%w: line %d: %s is not a string", apperr.ErrTagFormat, n.Line, n.ShortTag())
		}
		*l = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind == yaml.AliasNode {
				item = item.Alias
			}
			if item.Kind != yaml.ScalarNode || !isText(item) {
				return fmt.Errorf("%w: line %d: list item is not a string", apperr.ErrTagFormat, item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("%w: line %d: got a mapping", apperr.ErrTagFormat, n.Line)
	}
}

// isText reports whether a scalar reads as a string. Plain dates resolve to
// timestamps in YAML 1.1 and are kept as text.
func isText(n *yaml.Node) bool {
	switch n.ShortTag() {
	case "!!str", "!!timestamp":
		return true
	}
	return false
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrTagFormat, err)
		}
		*l = StringList{s}
		return nil
	case len(b) > 0 && b[0] == '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrTagFormat, err)
		}
		if items == nil {
			items = []string{}
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("%w: got %s", apperr.ErrTagFormat, b)
	}
}

// Date is a point in time stored as epoch seconds.
type Date int64

// Unix returns the epoch seconds.
func (d Date) Unix() int64 { return int64(d) }

// Time returns d as a UTC time.
func (d Date) Time() time.Time { return time.Unix(int64(d), 0).UTC() }

// String returns the formatted form used by non-storage modes.
func (d Date) String() string { return dates.Format(int64(d)) }

// MarshalJSON writes the canonical epoch-seconds form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(d), 10)), nil
}

// MarshalYAML writes the canonical epoch-seconds form.
func (d Date) MarshalYAML() (any, error) {
	return int64(d), nil
}

// UnmarshalYAML accepts any encoding understood by dates.Parse.
func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode {
		return d.UnmarshalYAML(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: date must be a scalar", apperr.ErrDateParse, n.Line)
	}
	secs, err := dates.ParseUnix(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Date(secs)
	return nil
}

// UnmarshalJSON accepts epoch seconds as a number or any dates.Parse string.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrDateParse, err)
		}
		secs, err := dates.ParseUnix(s)
		if err != nil {
			return err
		}
		*d = Date(secs)
		return nil
	}
	if secs, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*d = Date(secs)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrDateParse, b)
	}
	*d = Date(int64(f))
	return nil
}
