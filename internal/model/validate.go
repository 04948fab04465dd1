package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	enums := map[string]func(string) bool{
		"item_category":      IsValidCategory,
		"item_size":          IsValidSize,
		"item_condition":     IsValidCondition,
		"item_exchange_type": IsValidExchangeType,
		"username":           usernamePattern.MatchString,
	}
	for tag, fn := range enums {
		v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
	}

	return v
}

// Validate checks a request struct and returns a *ValidationError naming every
// invalid field.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating input: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// ValidateItem normalizes and validates item input.
func ValidateItem(in *ItemInput) error {
	in.Normalize()
	return Validate(in)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "username":
		return fmt.Sprintf("%s can only contain letters, numbers and underscores", field)
	case "item_category", "item_size", "item_condition", "item_exchange_type":
		return fmt.Sprintf("invalid %s %q", field, fe.Value())
	}
	return fmt.Sprintf("%s is invalid", field)
}
