package models

import (
	"strconv"
	"time"
)

// Field is one labelled attribute shown on a card or detail view.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields lists the roster card attributes below the name. The list is
// explicit so new columns are never shown by accident.
func (m Member) Fields() []Field {
	return []Field{
		{Key: "grade", Label: "Grade", Value: string(m.Grade)},
		{Key: "gender", Label: "Gender", Value: string(m.Gender)},
		{Key: "created_at", Label: "Joined", Value: FormatDate(m.CreatedAt)},
	}
}

// Fields lists the board attributes shown next to a post title.
func (p Post) Fields() []Field {
	return []Field{
		{Key: "author", Label: "Author", Value: p.Author},
		{Key: "created_at", Label: "Posted", Value: FormatDate(p.CreatedAt)},
		{Key: "views", Label: "Views", Value: strconv.FormatInt(p.Views, 10)},
	}
}

// FormatDate renders a timestamp the way the dashboard lists show it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}
