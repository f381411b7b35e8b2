package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   PostInput
		wantErr bool
	}{
		{
			name:  "valid post",
			input: PostInput{Title: "Weekly sync", Content: "Agenda attached", Author: "Kim"},
		},
		{
			name:    "missing title",
			input:   PostInput{Title: " ", Content: "Agenda attached", Author: "Kim"},
			wantErr: true,
		},
		{
			name:    "missing content",
			input:   PostInput{Title: "Weekly sync", Content: "", Author: "Kim"},
			wantErr: true,
		},
		{
			name:    "missing author",
			input:   PostInput{Title: "Weekly sync", Content: "Agenda attached"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostInputRowStartsAtZeroViews(t *testing.T) {
	row := PostInput{Title: "t", Content: "c", Author: "a"}.Row()
	assert.Equal(t, 0, row["views"])
}

func TestFilterByAuthor(t *testing.T) {
	posts := []Post{
		{ID: 1, Author: "Jung"},
		{ID: 2, Author: "lee"},
		{ID: 3, Author: "jung "},
	}

	t.Run("metadata name", func(t *testing.T) {
		u := &User{Email: "x@example.com", UserMetadata: UserMetadata{Name: "Jung"}}
		mine := FilterByAuthor(posts, u)
		assert.Len(t, mine, 2)
		assert.Equal(t, int64(1), mine[0].ID)
		assert.Equal(t, int64(3), mine[1].ID)
	})

	t.Run("email local part", func(t *testing.T) {
		u := &User{Email: "lee@example.com"}
		mine := FilterByAuthor(posts, u)
		assert.Len(t, mine, 1)
		assert.Equal(t, int64(2), mine[0].ID)
	})

	t.Run("no user", func(t *testing.T) {
		assert.Empty(t, FilterByAuthor(posts, nil))
	})
}
