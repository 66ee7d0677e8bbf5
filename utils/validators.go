package utils

import (
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

// studentIDPattern matches DIU roll numbers such as 193-15-1036.
var studentIDPattern = regexp.MustCompile(`^\d{2,3}-\d{2}-\d{3,5}$`)

func InitValidator() {
	Validate = validator.New()
	RegisterCustomValidators(Validate)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("studentid", ValidateStudentIDRule)
	v.RegisterValidation("password", ValidatePasswordRule)
}

func ValidateStudentIDRule(fl validator.FieldLevel) bool {
	return ValidateStudentID(fl.Field().String())
}

func ValidateStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

func ValidatePasswordRule(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String())
}

func ValidatePassword(password string) bool {
	// Password must:
	// - Be at least 6 characters long
	// - Contain at least one number
	// - Contain at least one special character

	hasNumber := false
	hasSpecial := false

	if len(password) < 6 {
		return false
	}

	for _, char := range password {
		switch {
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasNumber && hasSpecial
}
