package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/sproutapp/sprout/internal/exposure"
	"github.com/sproutapp/sprout/internal/generate"
	"github.com/sproutapp/sprout/internal/idea"
)

const draftPrompt = `You are an experienced startup advisor. Invent one original
product idea in the topic area "{{.topic}}".
{{if .avoid}}
Do NOT propose anything similar to these recent ideas:
{{.avoid}}
{{end}}
The idea must be feasible for a small team and genuinely useful.`

const featuresPrompt = `You are a senior product manager. Expand the following
product idea into a detailed feature breakdown.

Idea: {{.title}}
Description: {{.description}}

Build on these headline features:
{{.features}}`

const frameworksPrompt = `You are a pragmatic software architect. Suggest
technology stacks for building the following product.

Idea: {{.title}}
Description: {{.description}}`

const refinePrompt = `You are an experienced startup advisor. Rework the
following product idea according to the user's feedback. Keep what the
feedback does not touch.

Idea: {{.title}}
Description: {{.description}}

Feedback: {{.feedback}}`

// LLM produces ideas and expansions through a structured generator.
// Every method makes exactly one model call; a malformed response
// surfaces as a *generate.GenerationError for the caller to handle.
type LLM struct {
	gen *generate.Generator
}

// NewLLM wraps a structured generator with the idea pipeline's schemas.
func NewLLM(gen *generate.Generator) (*LLM, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &LLM{gen: gen}, nil
}

// DraftIdea generates a fresh idea in the given topic, steering the
// model away from recently seen ones.
func (l *LLM) DraftIdea(ctx context.Context, topic string, avoid []exposure.Seen) (idea.Draft, error) {
	out, err := generate.Generate[draftPayload](ctx, l.gen, generate.Spec{
		Schema:   draftSchema(),
		Template: draftPrompt,
	}, map[string]any{
		"topic": topic,
		"avoid": formatExclusions(avoid),
	})
	if err != nil {
		return idea.Draft{}, err
	}
	return idea.Draft{
		Title:       out.Title,
		Description: out.Description,
		Features:    out.Features,
	}, nil
}

// ExpandFeatures generates the detailed feature breakdown for an idea.
func (l *LLM) ExpandFeatures(ctx context.Context, subject *idea.Idea) ([]idea.Feature, error) {
	out, err := generate.Generate[featuresPayload](ctx, l.gen, generate.Spec{
		Schema:   featuresSchema(),
		Template: featuresPrompt,
	}, map[string]any{
		"title":       subject.Title,
		"description": subject.Description,
		"features":    formatFeatureStubs(subject.Features),
	})
	if err != nil {
		return nil, err
	}

	features := make([]idea.Feature, 0, len(out.Features))
	for _, f := range out.Features {
		features = append(features, idea.Feature{
			Title:              f.Title,
			UserStory:          f.UserStory,
			AcceptanceCriteria: f.AcceptanceCriteria,
		})
	}
	return features, nil
}

// ExpandFrameworks generates technology stack suggestions for an idea.
func (l *LLM) ExpandFrameworks(ctx context.Context, subject *idea.Idea) ([]idea.Framework, error) {
	out, err := generate.Generate[frameworksPayload](ctx, l.gen, generate.Spec{
		Schema:   frameworksSchema(),
		Template: frameworksPrompt,
	}, map[string]any{
		"title":       subject.Title,
		"description": subject.Description,
	})
	if err != nil {
		return nil, err
	}

	frameworks := make([]idea.Framework, 0, len(out.Frameworks))
	for _, fw := range out.Frameworks {
		frameworks = append(frameworks, idea.Framework{
			Title:       fw.Title,
			Description: fw.Description,
			Tools:       fw.Tools,
		})
	}
	return frameworks, nil
}

// Refine reworks an idea according to free-form user feedback.
func (l *LLM) Refine(ctx context.Context, subject *idea.Idea, feedback string) (idea.Draft, error) {
	out, err := generate.Generate[draftPayload](ctx, l.gen, generate.Spec{
		Schema:   refineSchema(),
		Template: refinePrompt,
	}, map[string]any{
		"title":       subject.Title,
		"description": subject.Description,
		"feedback":    feedback,
	})
	if err != nil {
		return idea.Draft{}, err
	}
	return idea.Draft{
		Title:       out.Title,
		Description: out.Description,
		Features:    out.Features,
	}, nil
}

// formatExclusions renders recently seen ideas as a bullet list for
// the draft prompt. Empty input renders to the empty string so the
// template drops the exclusion block entirely.
func formatExclusions(seen []exposure.Seen) string {
	if len(seen) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range seen {
		fmt.Fprintf(&b, "- %s: %s\n", v.Title, v.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatFeatureStubs(features []idea.Feature) string {
	if len(features) == 0 {
		return "(none yet)"
	}
	var b strings.Builder
	for _, f := range features {
		fmt.Fprintf(&b, "- %s\n", f.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
