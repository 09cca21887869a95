package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultField is the field a filter term targets when it names none.
const DefaultField = "tags"

// ErrBadFilter is returned for filter expressions that cannot be parsed.
var ErrBadFilter = errors.New("invalid filter")

// Term matches documents whose Field contains Value, or does not when Negate
// is set.
type Term struct {
	Field  string
	Value  string
	Negate bool
}

// Filter is a disjunction of conjunctions: a document matches when every
// term of at least one group matches. The zero Filter matches everything.
type Filter [][]Term

// ParseFilter reads expressions such as "vim | !bash" or
// "tags:go & authors:Alice | lang". "|" separates alternatives, "&" joins
// terms, a leading "!" negates a term and "field:value" targets a field.
func ParseFilter(expr string) (Filter, error) {
	var f Filter
	for _, alt := range strings.Split(expr, "|") {
		if strings.TrimSpace(alt) == "" {
			continue
		}
		var group []Term
		for _, raw := range strings.Split(alt, "&") {
			t, err := parseTerm(raw)
			if err != nil {
				return nil, err
			}
			group = append(group, t)
		}
		f = append(f, group)
	}
	return f, nil
}

func parseTerm(raw string) (Term, error) {
	s := strings.TrimSpace(raw)
	var t Term
	if strings.HasPrefix(s, "!") {
		t.Negate = true
		s = strings.TrimSpace(s[1:])
	}
	t.Field = DefaultField
	if field, value, ok := strings.Cut(s, ":"); ok {
		t.Field = strings.TrimSpace(field)
		s = strings.TrimSpace(value)
	}
	t.Value = s
	if t.Field == "" || t.Value == "" {
		return Term{}, fmt.Errorf("search: %w: empty term in %q", ErrBadFilter, strings.TrimSpace(raw))
	}
	return t, nil
}

// Empty reports whether f places no restriction.
func (f Filter) Empty() bool { return len(f) == 0 }

// Meili renders f in Meilisearch filter syntax.
func (f Filter) Meili() string {
	alts := make([]string, 0, len(f))
	for _, group := range f {
		terms := make([]string, 0, len(group))
		for _, t := range group {
			cond := t.Field + " = " + strconv.Quote(t.Value)
			if t.Negate {
				cond = "NOT " + cond
			}
			terms = append(terms, cond)
		}
		s := strings.Join(terms, " AND ")
		if len(group) > 1 && len(f) > 1 {
			s = "(" + s + ")"
		}
		alts = append(alts, s)
	}
	return strings.Join(alts, " OR ")
}

// Elastic renders f as an Elasticsearch bool query. It returns nil for the
// empty filter.
func (f Filter) Elastic() map[string]any {
	if f.Empty() {
		return nil
	}
	should := make([]any, 0, len(f))
	for _, group := range f {
		must := []any{}
		mustNot := []any{}
		for _, t := range group {
			clause := map[string]any{"match": map[string]any{t.Field: t.Value}}
			if t.Negate {
				mustNot = append(mustNot, clause)
			} else {
				must = append(must, clause)
			}
		}
		should = append(should, map[string]any{
			"bool": map[string]any{"must": must, "must_not": mustNot},
		})
	}
	return map[string]any{
		"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}
