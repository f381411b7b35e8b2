package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemberInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   MemberInput
		wantErr string
	}{
		{
			name:  "valid member",
			input: MemberInput{Name: "Kim", Grade: GradeManager, Gender: GenderMale},
		},
		{
			name:    "empty name",
			input:   MemberInput{Name: "", Grade: GradeManager, Gender: GenderMale},
			wantErr: "name is required",
		},
		{
			name:    "whitespace name",
			input:   MemberInput{Name: "   ", Grade: GradeAnalyst, Gender: GenderFemale},
			wantErr: "name is required",
		},
		{
			name:    "unknown grade",
			input:   MemberInput{Name: "Lee", Grade: "Intern", Gender: GenderMale},
			wantErr: "grade must be one of: Manager Partner SM Associate Analyst",
		},
		{
			name:    "unknown gender",
			input:   MemberInput{Name: "Lee", Grade: GradeSM, Gender: "other"},
			wantErr: "gender must be one of: male female",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestMemberInputTrimsName(t *testing.T) {
	in := MemberInput{Name: "  Park  ", Grade: GradePartner, Gender: GenderFemale}
	assert.NoError(t, in.Validate())
	assert.Equal(t, "Park", in.Name)
	assert.Equal(t, map[string]any{"name": "Park", "grade": "Partner", "gender": "female"}, in.Row())
}

func TestMemberInitial(t *testing.T) {
	assert.Equal(t, "A", Member{Name: "alice"}.Initial())
	assert.Equal(t, "정", Member{Name: "정형근"}.Initial())
	assert.Equal(t, "?", Member{Name: " "}.Initial())
}

func TestMemberFields(t *testing.T) {
	m := Member{ID: 7, Name: "Choi", Grade: GradeSM, Gender: GenderMale, CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	fields := m.Fields()

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"grade", "gender", "created_at"}, keys)
	assert.Equal(t, "SM", fields[0].Value)
	assert.NotEmpty(t, fields[2].Value)
}

func TestMemberTableName(t *testing.T) {
	assert.Equal(t, "da_members", Member{}.TableName())
}
