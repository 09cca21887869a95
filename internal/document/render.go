package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/parser"
)

// Render returns the text form of d in its mode: a metadata block followed
// by the separator and body for ModeStorage, the metadata block alone for
// ModeDisk, and the body alone for ModeHuman.
func (d Document) Render() (string, error) {
	lay, err := d.Mode.layout()
	if err != nil {
		return "", fmt.Errorf("document: render: %w: %v", apperr.ErrSerialization, err)
	}
	if !lay.envelope {
		return d.Body, nil
	}
	meta, err := encodeYAML(lay.project(d))
	if err != nil {
		return "", err
	}
	if !lay.trailer {
		return string(meta), nil
	}
	return string(meta) + parser.Separator + d.Body, nil
}

// String renders d. It panics on serialization errors, which a validly
// constructed Document never produces.
func (d Document) String() string {
	s, err := d.Render()
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalJSON writes the projected fields of d's mode as one ordered object.
func (d Document) MarshalJSON() ([]byte, error) {
	lay, err := d.Mode.layout()
	if err != nil {
		return nil, fmt.Errorf("document: marshal json: %w: %v", apperr.ErrSerialization, err)
	}
	om := orderedmap.New[string, any]()
	for _, f := range lay.project(d) {
		om.Set(f.Name, f.Value)
	}
	b, err := json.Marshal(om)
	if err != nil {
		return nil, fmt.Errorf("document: marshal json: %w: %v", apperr.ErrSerialization, err)
	}
	return b, nil
}

// MarshalYAML implements yaml.Marshaler with the projected fields of d's mode.
func (d Document) MarshalYAML() (any, error) {
	lay, err := d.Mode.layout()
	if err != nil {
		return nil, fmt.Errorf("document: marshal yaml: %w: %v", apperr.ErrSerialization, err)
	}
	return mappingNode(lay.project(d))
}

func mappingNode(fields []Field) (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		var v yaml.Node
		if err := v.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("document: encode %s: %w: %v", f.Name, apperr.ErrSerialization, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&v,
		)
	}
	return root, nil
}

func encodeYAML(fields []Field) ([]byte, error) {
	root, err := mappingNode(fields)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("document: encode metadata: %w: %v", apperr.ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("document: encode metadata: %w: %v", apperr.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}
