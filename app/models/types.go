package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Grade is a member's position on the team.
type Grade string

const (
	GradeManager   Grade = "Manager"
	GradePartner   Grade = "Partner"
	GradeSM        Grade = "SM"
	GradeAssociate Grade = "Associate"
	GradeAnalyst   Grade = "Analyst"
)

// Grades lists every grade in the order the roster form offers them.
var Grades = []Grade{GradeManager, GradePartner, GradeSM, GradeAssociate, GradeAnalyst}

// Gender of a member.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists the accepted gender values.
var Genders = []Gender{GenderMale, GenderFemale}

// ValidationError is a caller-side rejection. It never reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a caller-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validationError turns the first validator failure into a readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = "email address is invalid"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "eqfield":
		msg = "passwords do not match"
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &ValidationError{Field: field, Message: msg}
}
