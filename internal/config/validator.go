package config

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxIdentityLength = 128

func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("identity", validateIdentity)
	return v
}

// validateIdentity accepts the opaque ids minted by the identity service:
// non-empty, bounded, and free of whitespace or control characters.
func validateIdentity(fl validator.FieldLevel) bool {
	return IsValidIdentity(fl.Field().String())
}

func IsValidIdentity(id string) bool {
	if id == "" || len(id) > maxIdentityLength {
		return false
	}
	for _, char := range id {
		if unicode.IsSpace(char) || unicode.IsControl(char) {
			return false
		}
	}
	return true
}
