package generate

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// GenkitModel is the production TextModel backed by a genkit instance.
// Model name and temperature are fixed at construction; temperature is
// configuration controlling output diversity, not state.
type GenkitModel struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
}

// NewGenkitModel creates a GenkitModel.
func NewGenkitModel(g *genkit.Genkit, modelName string, temperature float32) (*GenkitModel, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GenkitModel{g: g, modelName: modelName, temperature: temperature}, nil
}

// Generate performs a single model invocation and returns the raw text.
func (m *GenkitModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.modelName),
		ai.WithPrompt(prompt),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(m.temperature),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return resp.Text(), nil
}
