// Package schema describes the expected shape of generated content.
//
// A Schema is a declarative descriptor (field names, kinds, length and
// count constraints, per-field guidance) interpreted by one generic
// validator. Call sites differ only in the descriptor they pass, never
// in parsing logic.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Kind identifies the primitive kind of a field.
type Kind string

const (
	String  Kind = "string"
	Integer Kind = "integer"
	Number  Kind = "number"
	Array   Kind = "array"
	Object  Kind = "object"
)

// Field describes a single field of a generated object.
// Zero values mean "unconstrained" for all bounds.
type Field struct {
	Name     string
	Kind     Kind
	Guidance string // free-text guidance surfaced in prompt instructions
	Optional bool   // fields are required unless marked optional

	// String constraints
	MinLen  int
	MaxLen  int
	Pattern string // RE2 pattern the whole string must match

	// Array constraints
	ExactItems int // takes precedence over MinItems/MaxItems when > 0
	MinItems   int
	MaxItems   int
	Items      *Field // element descriptor; Name is ignored

	// Object fields
	Fields []Field
}

// Schema is the top-level descriptor for one generation call site.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// JSONSchema converts the descriptor to a JSON Schema for embedding in
// prompt formatting instructions.
func (s Schema) JSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:        "object",
		Description: s.Description,
		Properties:  make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		out.Properties[f.Name] = f.jsonSchema()
		if !f.Optional {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func (f Field) jsonSchema() *jsonschema.Schema {
	js := &jsonschema.Schema{
		Type:        string(f.Kind),
		Description: f.Guidance,
	}

	switch f.Kind {
	case String:
		if f.MinLen > 0 {
			js.MinLength = intp(f.MinLen)
		}
		if f.MaxLen > 0 {
			js.MaxLength = intp(f.MaxLen)
		}
		js.Pattern = f.Pattern
	case Array:
		if f.Items != nil {
			js.Items = f.Items.jsonSchema()
		}
		minItems, maxItems := f.itemBounds()
		if minItems > 0 {
			js.MinItems = intp(minItems)
		}
		if maxItems > 0 {
			js.MaxItems = intp(maxItems)
		}
	case Object:
		js.Properties = make(map[string]*jsonschema.Schema, len(f.Fields))
		for _, sub := range f.Fields {
			js.Properties[sub.Name] = sub.jsonSchema()
			if !sub.Optional {
				js.Required = append(js.Required, sub.Name)
			}
		}
	}

	return js
}

// itemBounds resolves the effective min/max item counts.
func (f Field) itemBounds() (minItems, maxItems int) {
	if f.ExactItems > 0 {
		return f.ExactItems, f.ExactItems
	}
	return f.MinItems, f.MaxItems
}

// Instructions renders the machine-readable formatting instructions for
// this schema: the JSON Schema itself plus hard constraints spelled out
// as imperative lines, which models follow more reliably than schema
// keywords alone.
func (s Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. The object must match this JSON Schema:\n\n")

	if encoded, err := json.MarshalIndent(s.JSONSchema(), "", "  "); err == nil {
		b.Write(encoded)
		b.WriteString("\n")
	}

	constraints := s.constraintLines()
	if len(constraints) > 0 {
		b.WriteString("\nHard constraints:\n")
		for _, line := range constraints {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// constraintLines collects the hard constraints across all fields.
func (s Schema) constraintLines() []string {
	var lines []string
	for _, f := range s.Fields {
		lines = append(lines, f.constraintLines(f.Name)...)
	}
	return lines
}

func (f Field) constraintLines(path string) []string {
	var lines []string

	switch f.Kind {
	case String:
		if f.MaxLen > 0 {
			lines = append(lines, fmt.Sprintf("%q must be at most %d characters", path, f.MaxLen))
		}
		if f.Pattern != "" {
			lines = append(lines, fmt.Sprintf("%q must match the pattern %s", path, f.Pattern))
		}
	case Array:
		if f.ExactItems > 0 {
			lines = append(lines, fmt.Sprintf("%q must contain exactly %d items", path, f.ExactItems))
		} else {
			if f.MinItems > 0 {
				lines = append(lines, fmt.Sprintf("%q must contain at least %d items", path, f.MinItems))
			}
			if f.MaxItems > 0 {
				lines = append(lines, fmt.Sprintf("%q must contain at most %d items", path, f.MaxItems))
			}
		}
		if f.Items != nil {
			lines = append(lines, f.Items.constraintLines(path+"[]")...)
		}
	case Object:
		for _, sub := range f.Fields {
			lines = append(lines, sub.constraintLines(path+"."+sub.Name)...)
		}
	}

	return lines
}

func intp(i int) *int {
	return &i
}
