package model

import (
	"time"
	"unicode/utf8"
)

// MaxPromptLength bounds each project instruction, in characters.
const MaxPromptLength = 4000

// Project is owned by exactly one principal. The chat relay reads projects; their
// lifecycle belongs to the project management service.
type Project struct {
	ID            int64     `json:"id,string"`
	OwnerID       int64     `json:"owner_id,string"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Prompts       []string  `json:"prompts"`
	ProviderFiles []string  `json:"provider_files"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy reports whether principalID owns the project.
func (p *Project) OwnedBy(principalID int64) bool {
	return p != nil && p.OwnerID == principalID
}

// OversizedPrompts returns the indexes of prompts longer than MaxPromptLength.
func (p *Project) OversizedPrompts() []int {
	var oversized []int
	for i, prompt := range p.Prompts {
		if utf8.RuneCountInString(prompt) > MaxPromptLength {
			oversized = append(oversized, i)
		}
	}
	return oversized
}
