// Package validator wraps go-playground/validator with the custom rules the
// request DTOs rely on.
package validator

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"brokerage_backend/platform/phone"
)

// Validator is injected into handlers.
type Validator struct {
	v *validator.Validate
}

// New registers the "phone" rule using normalizer to decide whether a
// string can be dialled.
func New(normalizer *phone.Normalizer) *Validator {
	v := validator.New()
	if normalizer == nil {
		normalizer = phone.NewNormalizer(phone.DefaultRegion)
	}
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return normalizer.IsPossible(field.String())
	})
	return &Validator{v: v}
}

func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
