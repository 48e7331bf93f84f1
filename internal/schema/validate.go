package schema

import (
	"fmt"
	"math"
	"regexp"
	"sync"
	"unicode/utf8"
)

// FieldError describes one validation failure at a specific field path
// (for example "frameworks[1].tools[0]").
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Message
}

// Validate checks decoded JSON data against the schema. It returns one
// FieldError per violation; an empty slice means the data is valid.
//
// Fields not declared in the schema are ignored: models routinely emit
// extra keys, and the typed decode step drops them anyway.
func (s Schema) Validate(data any) []FieldError {
	obj, ok := data.(map[string]any)
	if !ok {
		return []FieldError{{Path: "$", Message: fmt.Sprintf("expected JSON object, got %s", jsonKindOf(data))}}
	}

	var errs []FieldError
	for _, f := range s.Fields {
		value, present := obj[f.Name]
		if !present || value == nil {
			if !f.Optional {
				errs = append(errs, FieldError{Path: f.Name, Message: "missing required field"})
			}
			continue
		}
		errs = append(errs, f.validate(f.Name, value)...)
	}
	return errs
}

func (f Field) validate(path string, value any) []FieldError {
	switch f.Kind {
	case String:
		return f.validateString(path, value)
	case Integer:
		return validateInteger(path, value)
	case Number:
		if _, ok := value.(float64); !ok {
			return []FieldError{{Path: path, Message: fmt.Sprintf("expected number, got %s", jsonKindOf(value))}}
		}
		return nil
	case Array:
		return f.validateArray(path, value)
	case Object:
		return f.validateObject(path, value)
	default:
		return []FieldError{{Path: path, Message: fmt.Sprintf("unknown schema kind %q", f.Kind)}}
	}
}

func (f Field) validateString(path string, value any) []FieldError {
	s, ok := value.(string)
	if !ok {
		return []FieldError{{Path: path, Message: fmt.Sprintf("expected string, got %s", jsonKindOf(value))}}
	}

	var errs []FieldError
	length := utf8.RuneCountInString(s)
	if f.MinLen > 0 && length < f.MinLen {
		errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("length %d below minimum %d", length, f.MinLen)})
	}
	if f.MaxLen > 0 && length > f.MaxLen {
		errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("length %d exceeds maximum %d", length, f.MaxLen)})
	}
	if f.Pattern != "" {
		re, err := compilePattern(f.Pattern)
		if err != nil {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("invalid schema pattern %q: %v", f.Pattern, err)})
		} else if !re.MatchString(s) {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("%q does not match pattern %s", s, f.Pattern)})
		}
	}
	return errs
}

func validateInteger(path string, value any) []FieldError {
	n, ok := value.(float64)
	if !ok {
		return []FieldError{{Path: path, Message: fmt.Sprintf("expected integer, got %s", jsonKindOf(value))}}
	}
	if n != math.Trunc(n) {
		return []FieldError{{Path: path, Message: fmt.Sprintf("expected integer, got %v", n)}}
	}
	return nil
}

func (f Field) validateArray(path string, value any) []FieldError {
	arr, ok := value.([]any)
	if !ok {
		return []FieldError{{Path: path, Message: fmt.Sprintf("expected array, got %s", jsonKindOf(value))}}
	}

	var errs []FieldError
	minItems, maxItems := f.itemBounds()
	if f.ExactItems > 0 && len(arr) != f.ExactItems {
		errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("expected exactly %d items, got %d", f.ExactItems, len(arr))})
	} else {
		if minItems > 0 && len(arr) < minItems {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("expected at least %d items, got %d", minItems, len(arr))})
		}
		if maxItems > 0 && len(arr) > maxItems {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("expected at most %d items, got %d", maxItems, len(arr))})
		}
	}

	if f.Items != nil {
		for i, elem := range arr {
			errs = append(errs, f.Items.validate(fmt.Sprintf("%s[%d]", path, i), elem)...)
		}
	}
	return errs
}

func (f Field) validateObject(path string, value any) []FieldError {
	obj, ok := value.(map[string]any)
	if !ok {
		return []FieldError{{Path: path, Message: fmt.Sprintf("expected object, got %s", jsonKindOf(value))}}
	}

	var errs []FieldError
	for _, sub := range f.Fields {
		child, present := obj[sub.Name]
		childPath := path + "." + sub.Name
		if !present || child == nil {
			if !sub.Optional {
				errs = append(errs, FieldError{Path: childPath, Message: "missing required field"})
			}
			continue
		}
		errs = append(errs, sub.validate(childPath, child)...)
	}
	return errs
}

// jsonKindOf names the JSON type of a decoded value for error messages.
func jsonKindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// patternCache memoizes compiled schema patterns. Descriptors are
// package-level values, so the set of patterns is small and fixed.
var patternCache sync.Map // string -> *regexp.Regexp

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}
