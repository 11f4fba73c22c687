package onboarding

import (
	"maps"
	"slices"

	"github.com/mbuy/stores/internal/domain"
)

// Role of a chat transcript entry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the completion chat transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Draft is the store configuration accumulated across the wizard steps.
type Draft struct {
	Name        string            `json:"name,omitempty"`
	Slug        string            `json:"slug,omitempty"`
	Description string            `json:"description,omitempty"`
	City        string            `json:"city,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
	Skipped     bool              `json:"skipped,omitempty"`
	Branding    *domain.Branding  `json:"branding,omitempty"`
	ChatHistory []ChatMessage     `json:"chat_history,omitempty"`
}

// Patch is one step's output. Nil fields are absent; present fields replace
// the draft's value even when empty.
type Patch struct {
	Name        *string
	Slug        *string
	Description *string
	City        *string
	Answers     map[string]string
	Skipped     *bool
	Branding    *domain.Branding
	ChatHistory []ChatMessage
}

// Merge applies p on top of d, later values winning per field.
func (d Draft) Merge(p Patch) Draft {
	out := d.clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Slug != nil {
		out.Slug = *p.Slug
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.City != nil {
		out.City = *p.City
	}
	if p.Answers != nil {
		out.Answers = maps.Clone(p.Answers)
	}
	if p.Skipped != nil {
		out.Skipped = *p.Skipped
	}
	if p.Branding != nil {
		b := *p.Branding
		out.Branding = &b
	}
	if p.ChatHistory != nil {
		out.ChatHistory = slices.Clone(p.ChatHistory)
	}
	return out
}

// IsEmpty reports whether nothing has been entered yet.
func (d Draft) IsEmpty() bool {
	return d.Name == "" && d.Slug == "" && d.Description == "" && d.City == "" &&
		len(d.Answers) == 0 && !d.Skipped && d.Branding == nil && len(d.ChatHistory) == 0
}

func (d Draft) clone() Draft {
	out := d
	out.Answers = maps.Clone(d.Answers)
	if d.Branding != nil {
		b := *d.Branding
		out.Branding = &b
	}
	out.ChatHistory = slices.Clone(d.ChatHistory)
	return out
}

func ptr[T any](v T) *T {
	return &v
}
