package models

import (
	"strings"
	"time"
)

// Post is one entry on the discussion board.
type Post struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Views     int64     `json:"views"`
}

// PostInput is what the new-post form collects. There is no views field:
// a new post always starts at zero.
type PostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
	Author  string `json:"author" validate:"required,max=100"`
}

// Validate trims every field and checks the input.
func (in *PostInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Author = strings.TrimSpace(in.Author)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

// Row returns the insert payload for the posts table.
func (in PostInput) Row() map[string]any {
	return map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"author":  in.Author,
		"views":   0,
	}
}

// WrittenBy reports whether the post's free-text author matches the user's
// display name. There is no referential link between the two.
func (p Post) WrittenBy(u *User) bool {
	if u == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(p.Author), u.DisplayName())
}

// FilterByAuthor keeps the posts written by u, preserving order.
func FilterByAuthor(posts []Post, u *User) []Post {
	mine := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.WrittenBy(u) {
			mine = append(mine, p)
		}
	}
	return mine
}
