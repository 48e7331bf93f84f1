package generate

import (
	"fmt"
	"strings"

	"github.com/sproutapp/sprout/internal/schema"
)

// GenerationError reports model output that failed schema validation or
// could not be parsed at all. The offending field paths are carried so
// callers can log or surface them; the raw output is never returned to
// callers as valid data.
type GenerationError struct {
	Schema  string              // schema name of the failed call site
	Message string              // parse-level failure, empty when Fields is set
	Fields  []schema.FieldError // per-field validation failures
}

func (e *GenerationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("generation for %q failed: %s", e.Schema, e.Message)
	}

	paths := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		paths[i] = fe.String()
	}
	return fmt.Sprintf("generation for %q failed validation: %s", e.Schema, strings.Join(paths, "; "))
}

// FieldPaths returns the paths of all offending fields.
func (e *GenerationError) FieldPaths() []string {
	paths := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		paths[i] = fe.Path
	}
	return paths
}
