package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

const (
	maxTermLength     = 100
	maxCategoryLength = 60
)

// ValidateTerm checks a word bank term
func ValidateTerm(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return ValidationError{Field: "term", Message: "term is required"}
	}
	if utf8.RuneCountInString(term) > maxTermLength {
		return ValidationError{Field: "term", Message: fmt.Sprintf("term must be at most %d characters", maxTermLength)}
	}
	return nil
}

// ValidateCategory checks a category name; empty means the default category
func ValidateCategory(category string) error {
	if utf8.RuneCountInString(strings.TrimSpace(category)) > maxCategoryLength {
		return ValidationError{Field: "category", Message: fmt.Sprintf("category must be at most %d characters", maxCategoryLength)}
	}
	return nil
}
