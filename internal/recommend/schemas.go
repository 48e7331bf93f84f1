package recommend

import "github.com/sproutapp/sprout/internal/schema"

// Output shapes requested from the model. Counts and patterns here are
// enforced after every call, so a response that drifts from them is
// rejected rather than stored.

type draftPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

type featurePayload struct {
	Title              string   `json:"title"`
	UserStory          string   `json:"user_story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

type featuresPayload struct {
	Features []featurePayload `json:"features"`
}

type frameworkPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

type frameworksPayload struct {
	Frameworks []frameworkPayload `json:"frameworks"`
}

const (
	draftFeatureCount  = 3
	featureCount       = 3
	criteriaPerFeature = 2
	frameworkCount     = 3
	maxToolsPerEntry   = 6

	// Lowercase alphanumeric, single word. Keeps tool names usable as
	// lookup keys downstream.
	toolNamePattern = `^[a-z0-9]+$`

	// Fixed user-story narrative. The placeholders are free text but
	// the connective frame is not negotiable.
	userStoryPattern = `^As an? .+, I want .+ so that .+`
)

func draftSchema() schema.Schema {
	return schema.Schema{
		Name:        "idea_draft",
		Description: "A new startup or side-project idea.",
		Fields: []schema.Field{
			{
				Name:     "title",
				Kind:     schema.String,
				Guidance: "Short, memorable product name.",
				MinLen:   1,
				MaxLen:   120,
			},
			{
				Name:     "description",
				Kind:     schema.String,
				Guidance: "One-paragraph pitch: the problem and how the product solves it.",
				MinLen:   1,
				MaxLen:   600,
			},
			{
				Name:       "features",
				Kind:       schema.Array,
				Guidance:   "Headline features, title only.",
				ExactItems: draftFeatureCount,
				Items: &schema.Field{
					Kind:   schema.String,
					MinLen: 1,
					MaxLen: 120,
				},
			},
		},
	}
}

func featuresSchema() schema.Schema {
	return schema.Schema{
		Name:        "feature_expansion",
		Description: "Detailed feature breakdown for an existing idea.",
		Fields: []schema.Field{
			{
				Name:       "features",
				Kind:       schema.Array,
				ExactItems: featureCount,
				Items: &schema.Field{
					Kind: schema.Object,
					Fields: []schema.Field{
						{
							Name:   "title",
							Kind:   schema.String,
							MinLen: 1,
							MaxLen: 120,
						},
						{
							Name:     "user_story",
							Kind:     schema.String,
							Guidance: "As a <user>, I want <capability> so that <benefit>.",
							MinLen:   1,
							MaxLen:   600,
							Pattern:  userStoryPattern,
						},
						{
							Name:       "acceptance_criteria",
							Kind:       schema.Array,
							Guidance:   "Concrete, testable conditions.",
							ExactItems: criteriaPerFeature,
							Items: &schema.Field{
								Kind:   schema.String,
								MinLen: 1,
							},
						},
					},
				},
			},
		},
	}
}

func frameworksSchema() schema.Schema {
	return schema.Schema{
		Name:        "framework_suggestions",
		Description: "Technology stacks suited to building an existing idea.",
		Fields: []schema.Field{
			{
				Name:       "frameworks",
				Kind:       schema.Array,
				ExactItems: frameworkCount,
				Items: &schema.Field{
					Kind: schema.Object,
					Fields: []schema.Field{
						{
							Name:   "title",
							Kind:   schema.String,
							MinLen: 1,
							MaxLen: 120,
						},
						{
							Name:     "description",
							Kind:     schema.String,
							Guidance: "Why this stack fits the idea. Mention each tool name at most once.",
							MinLen:   1,
							MaxLen:   600,
						},
						{
							Name:     "tools",
							Kind:     schema.Array,
							Guidance: "Lowercase single-word tool names, e.g. react, postgres.",
							MinItems: 1,
							MaxItems: maxToolsPerEntry,
							Items: &schema.Field{
								Kind:    schema.String,
								Pattern: toolNamePattern,
							},
						},
					},
				},
			},
		},
	}
}

func refineSchema() schema.Schema {
	s := draftSchema()
	s.Name = "idea_refinement"
	s.Description = "An existing idea reworked according to user feedback."
	return s
}
