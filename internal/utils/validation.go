package contextutils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// IsValidUsername checks that a username is 3-32 characters of letters, digits, dot, underscore or dash
func IsValidUsername(username string) bool {
	return validate.Var(username, "required,min=3,max=32,username") == nil
}

// NormalizeUsername trims surrounding whitespace and lowercases the username so lookups are case-insensitive
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsBlank reports whether s contains only whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
