// Package generate produces schema-constrained structured content from
// a language model.
//
// Every call site (idea generation, feature expansion, framework
// expansion, refinement) shares the same prompting and validation
// machinery and differs only in its Spec: a prompt template paired with
// a schema descriptor. The model is invoked exactly once per call; no
// retry loop lives here. Blind retries on a generative call can
// silently change output character, so retrying is the caller's
// explicit choice.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/sproutapp/sprout/internal/schema"
)

// maxResponseBytes limits model response size before JSON parsing.
const maxResponseBytes = 64 * 1024

// TextModel is the single-call language model dependency. A concrete
// genkit-backed implementation lives in genkit.go; tests substitute a
// double. The client is constructed once and injected, never a global.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Spec pairs a prompt template with the schema its output must match.
type Spec struct {
	Schema   schema.Schema
	Template string // text/template source rendered with the call's variables
}

// Generator renders prompts, invokes the model, and validates output.
type Generator struct {
	model  TextModel
	logger *slog.Logger
}

// New creates a Generator. The model is required; a nil logger falls
// back to slog.Default().
func New(model TextModel, logger *slog.Logger) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, logger: logger}, nil
}

// Raw runs one generation call and returns the raw JSON after it passed
// schema validation. Invalid output produces a *GenerationError carrying
// the offending field paths.
func (g *Generator) Raw(ctx context.Context, sp Spec, vars map[string]any) (json.RawMessage, error) {
	prompt, err := renderPrompt(sp, vars)
	if err != nil {
		return nil, err
	}

	out, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("invoking model for %q: %w", sp.Schema.Name, err)
	}

	text := stripCodeFences(strings.TrimSpace(out))
	if text == "" {
		return nil, &GenerationError{Schema: sp.Schema.Name, Message: "empty model response"}
	}
	if len(text) > maxResponseBytes {
		return nil, &GenerationError{Schema: sp.Schema.Name, Message: fmt.Sprintf("response too large: %d bytes", len(text))}
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, &GenerationError{
			Schema:  sp.Schema.Name,
			Message: fmt.Sprintf("parsing response: %v (raw: %q)", err, truncate(text, 200)),
		}
	}

	if fieldErrs := sp.Schema.Validate(decoded); len(fieldErrs) > 0 {
		g.logger.Debug("generated content failed validation",
			"schema", sp.Schema.Name, "violations", len(fieldErrs))
		return nil, &GenerationError{Schema: sp.Schema.Name, Fields: fieldErrs}
	}

	return json.RawMessage(text), nil
}

// Generate runs one validated generation call and decodes the result
// into T. T's json tags must mirror the schema descriptor.
func Generate[T any](ctx context.Context, g *Generator, sp Spec, vars map[string]any) (T, error) {
	var out T

	raw, err := g.Raw(ctx, sp, vars)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &GenerationError{
			Schema:  sp.Schema.Name,
			Message: fmt.Sprintf("decoding validated response: %v", err),
		}
	}
	return out, nil
}

// renderPrompt renders the Spec's template with the call variables and
// appends the schema-derived formatting instructions.
func renderPrompt(sp Spec, vars map[string]any) (string, error) {
	tmpl, err := template.New(sp.Schema.Name).Option("missingkey=error").Parse(sp.Template)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template for %q: %w", sp.Schema.Name, err)
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("rendering prompt for %q: %w", sp.Schema.Name, err)
	}

	b.WriteString("\n\n")
	b.WriteString(sp.Schema.Instructions())
	return b.String(), nil
}

// stripCodeFences removes ```json ... ``` wrapping from model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate shortens s to at most n bytes for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
