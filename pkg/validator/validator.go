package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^0\d{9}$`)
	websitePattern = regexp.MustCompile(`^https?://.+\..+`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so API clients can map errors to inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	must(v.RegisterValidation("personname", isPersonName))
	must(v.RegisterValidation("vnphone", isPhone))
	must(v.RegisterValidation("website", isWebsite))
	must(v.RegisterValidation("password", isPassword))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// isPersonName accepts letters in any script, spaces, apostrophes and hyphens.
func isPersonName(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return true
}

// isPhone accepts ten digit numbers with a leading zero; whitespace is ignored.
func isPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(StripSpaces(fl.Field().String()))
}

func isWebsite(fl validator.FieldLevel) bool {
	return websitePattern.MatchString(fl.Field().String())
}

// isPassword requires at least one letter and one digit. Length is checked by min.
func isPassword(fl validator.FieldLevel) bool {
	var letter, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// StripSpaces removes every whitespace rune from s.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := make(map[string]string, len(validationErrors))
			for _, fe := range validationErrors {
				if _, seen := fields[fe.Field()]; !seen {
					fields[fe.Field()] = msgForTag(fe)
				}
			}
			return &ValidationError{fields: fields}
		}
		return err
	}
	return nil
}

// ValidationError carries field-level validation messages keyed by field name.
type ValidationError struct {
	fields map[string]string
}

// NewValidationError builds a ValidationError from hand-written field checks.
func NewValidationError(fields map[string]string) *ValidationError {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &ValidationError{fields: copied}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", name, e.fields[name]))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		fields[k] = v
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "eqfield":
		return "does not match"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "personname":
		return "may only contain letters, spaces, apostrophes and hyphens"
	case "vnphone":
		return "must be 10 digits starting with 0"
	case "website":
		return "must start with http:// or https://"
	case "password":
		return "must contain at least one letter and one digit"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate reads JSON from the request body, decodes it into dst,
// and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
