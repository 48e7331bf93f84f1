package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sproutapp/sprout/internal/log"
	"github.com/sproutapp/sprout/internal/schema"
)

// mockModel implements TextModel for testing.
type mockModel struct {
	response   string
	err        error
	callCount  int
	lastPrompt string
}

func (m *mockModel) Generate(_ context.Context, prompt string) (string, error) {
	m.callCount++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type ideaDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

func ideaSpec() Spec {
	return Spec{
		Schema: schema.Schema{
			Name: "idea",
			Fields: []schema.Field{
				{Name: "title", Kind: schema.String, MaxLen: 120},
				{Name: "description", Kind: schema.String, MaxLen: 600},
				{Name: "features", Kind: schema.Array, ExactItems: 3,
					Items: &schema.Field{Kind: schema.String, MaxLen: 120}},
			},
		},
		Template: "Suggest a {{.topic}} project idea.{{if .exclusions}} Avoid: {{.exclusions}}.{{end}}",
	}
}

const validIdeaJSON = `{"title": "Trail Buddy", "description": "Track hikes with friends", "features": ["Route log", "Photo pins", "Group stats"]}`

func TestGenerate_OK(t *testing.T) {
	model := &mockModel{response: validIdeaJSON}
	g, err := New(model, log.NewNop())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	draft, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{
		"topic": "fitness", "exclusions": "",
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	if draft.Title != "Trail Buddy" {
		t.Errorf("title = %q, want Trail Buddy", draft.Title)
	}
	if len(draft.Features) != 3 {
		t.Errorf("features = %d, want 3", len(draft.Features))
	}
}

func TestGenerate_InvokesModelExactlyOnce(t *testing.T) {
	model := &mockModel{response: `not json at all`}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})
	if err == nil {
		t.Fatal("Generate() = nil, want error for invalid JSON")
	}
	if model.callCount != 1 {
		t.Errorf("model calls = %d, want exactly 1 (no automatic retry)", model.callCount)
	}
}

func TestGenerate_PromptContainsVariablesAndInstructions(t *testing.T) {
	model := &mockModel{response: validIdeaJSON}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{
		"topic": "fitness", "exclusions": "Trail Tracker; Gym Log",
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	for _, want := range []string{
		"Suggest a fitness project idea",
		"Avoid: Trail Tracker; Gym Log",
		"JSON Schema",
		`"features" must contain exactly 3 items`,
	} {
		if !strings.Contains(model.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, model.lastPrompt)
		}
	}
}

func TestGenerate_CodeFencesStripped(t *testing.T) {
	model := &mockModel{response: "```json\n" + validIdeaJSON + "\n```"}
	g, _ := New(model, log.NewNop())

	draft, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if draft.Title != "Trail Buddy" {
		t.Errorf("title = %q, want Trail Buddy", draft.Title)
	}
}

func TestGenerate_ValidationFailureCarriesFieldPaths(t *testing.T) {
	// Two features instead of three: must fail, never be padded.
	model := &mockModel{response: `{"title": "T", "description": "D", "features": ["a", "b"]}`}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() = %v, want *GenerationError", err)
	}
	if genErr.Schema != "idea" {
		t.Errorf("Schema = %q, want idea", genErr.Schema)
	}
	paths := genErr.FieldPaths()
	if len(paths) != 1 || paths[0] != "features" {
		t.Errorf("FieldPaths() = %v, want [features]", paths)
	}
}

func TestGenerate_MissingFieldRejected(t *testing.T) {
	model := &mockModel{response: `{"title": "T", "features": ["a", "b", "c"]}`}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() = %v, want *GenerationError", err)
	}
	if !strings.Contains(genErr.Error(), "description") {
		t.Errorf("error = %v, want mention of missing description", genErr)
	}
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	model := &mockModel{err: wantErr}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})
	if !errors.Is(err, wantErr) {
		t.Errorf("Generate() = %v, want wrapped quota error", err)
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		t.Error("model invocation failure should not be a GenerationError")
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	model := &mockModel{response: "   "}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() = %v, want *GenerationError", err)
	}
	if !strings.Contains(genErr.Message, "empty") {
		t.Errorf("Message = %q, want empty-response error", genErr.Message)
	}
}

func TestGenerate_OversizedResponse(t *testing.T) {
	model := &mockModel{response: `{"pad": "` + strings.Repeat("x", maxResponseBytes) + `"}`}
	g, _ := New(model, log.NewNop())

	_, err := Generate[ideaDraft](t.Context(), g, ideaSpec(), map[string]any{"topic": "x", "exclusions": ""})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() = %v, want *GenerationError", err)
	}
	if !strings.Contains(genErr.Message, "too large") {
		t.Errorf("Message = %q, want size error", genErr.Message)
	}
}

func TestNew_NilModel(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("New(nil) = nil, want error")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fences", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "empty", input: "", want: ""},
		{name: "only fences", input: "```json\n```", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.input); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
