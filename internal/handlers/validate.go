package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"blogpress/internal/slug"
)

// Field-level messages shown next to form inputs.
const (
	msgRequired      = "This field is required."
	msgInvalidSlug   = "Enter a valid “slug” consisting of letters, numbers, underscores or hyphens."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgSlugTaken     = "Blog post with this Slug already exists."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooLarge = "The uploaded image is too large (max 10 MB)."
)

// FormErrors maps a form field name to its first error message. The
// "_form" key holds errors that belong to no single field.
type FormErrors map[string]string

// Add records msg for field unless the field already has an error.
func (e FormErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Any reports whether at least one error was recorded.
func (e FormErrors) Any() bool {
	return len(e) > 0
}

var validate = newValidator()

// newValidator configures a validator that reports fields by their form
// name and understands the "slug" tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("slug", validateSlug); err != nil {
		panic("handlers: failed to register slug validation: " + err.Error())
	}
	return v
}

func validateSlug(fl validator.FieldLevel) bool {
	return slug.IsValid(fl.Field().String())
}

// validateStruct runs the struct tags on form and converts failures into
// field messages.
func validateStruct(form any) FormErrors {
	errs := FormErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		errs.Add("_form", "The form could not be validated.")
		return errs
	}
	for _, fe := range vErrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

// fieldMessage renders a single validation failure.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		n := 0
		if s, ok := fe.Value().(string); ok {
			n = utf8.RuneCountInString(s)
		}
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), n)
	case "slug":
		return msgInvalidSlug
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "uuid":
		return msgInvalidChoice
	default:
		return "Enter a valid value."
	}
}
