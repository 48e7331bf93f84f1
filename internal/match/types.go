// Package match finds starter templates similar to a project
// description using vector similarity over template embeddings.
package match

import (
	"errors"
	"time"
)

// RepoMetadata is the enrichment fetched for a matched template's
// repository.
type RepoMetadata struct {
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Match is one template ranked against the query description.
// Metadata is nil when enrichment failed or was skipped; the match
// itself still stands.
type Match struct {
	URL        string        `json:"url"`
	Similarity float64       `json:"similarity"`
	Metadata   *RepoMetadata `json:"metadata,omitempty"`
}

// ErrEmptyDescription is returned by Matcher.Match before any
// embedding call when the query description is blank.
var ErrEmptyDescription = errors.New("description is required")
