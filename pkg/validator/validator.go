package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator for inputs that arrive outside a
// gin binding, such as the resend-verification email.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag, e.g. "required,email".
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}
