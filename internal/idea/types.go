// Package idea holds the core domain types and their PostgreSQL store.
package idea

import (
	"time"

	"github.com/google/uuid"
)

// Length bounds enforced by both generation schemas and table columns.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 600
)

// Idea is a short software-project concept. Title and description are
// bounded; feature stubs keep the generation-time ordering.
type Idea struct {
	ID          uuid.UUID
	Title       string
	Description string
	Features    []Feature
	Frameworks  []Framework
	Likes       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Feature is one expanded feature of an idea. A freshly suggested idea
// carries title-only stubs; expansion fills in the user story and the
// acceptance criteria.
type Feature struct {
	ID                 uuid.UUID
	Title              string
	UserStory          string
	AcceptanceCriteria []string
}

// Framework is one recommended build category with its tool list.
// Tools are lowercase alphanumeric tokens.
type Framework struct {
	ID          uuid.UUID
	Title       string
	Description string
	Tools       []string
}

// Draft is the pre-persistence shape of an idea: generation output or a
// direct user submission. Features are title-only stubs.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}
