package models

import (
	"strings"
	"time"
)

// Member is one row of the roster table.
type Member struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Grade     Grade     `json:"grade"`
	Gender    Gender    `json:"gender"`
}

// TableName overrides the derived table name.
func (Member) TableName() string { return "da_members" }

// MemberInput is what the add-member form collects.
type MemberInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Grade  Grade  `json:"grade" validate:"required,oneof=Manager Partner SM Associate Analyst"`
	Gender Gender `json:"gender" validate:"required,oneof=male female"`
}

// Validate trims the name and checks the input. A blank name is rejected.
func (in *MemberInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

// Row returns the insert payload for the members table.
func (in MemberInput) Row() map[string]any {
	return map[string]any{
		"name":   in.Name,
		"grade":  string(in.Grade),
		"gender": string(in.Gender),
	}
}

// Initial is the avatar letter shown on a roster card.
func (m Member) Initial() string {
	for _, r := range strings.TrimSpace(m.Name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}
