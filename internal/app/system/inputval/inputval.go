// Package inputval validates decoded JSON request bodies using
// waffle/pantry/validate.
//
// Define a request struct with validate tags, decode the body into it, and
// call Validate to get user-friendly messages keyed by JSON field name.
//
// Example:
//
//	type createPageRequest struct {
//	    Title string `json:"title" validate:"required,max=200" label:"Title"`
//	    Slug  string `json:"slug" validate:"slug" label:"Slug"`
//	}
//
//	if res := inputval.Validate(req); res.HasErrors() {
//	    jsonutil.BadRequest(w, res.First())
//	    return
//	}
package inputval

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// customValidator is a singleton validator with custom rules registered.
var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with custom rules.
// Custom rules accept the empty string; pair them with required when the
// field is mandatory.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		register := func(name string, fn func(string) bool) {
			customValidator.RegisterRuleFunc(name, func(value any) bool {
				s, ok := value.(string)
				if !ok {
					return false
				}
				return s == "" || fn(s)
			}, name)
		}

		register("slug", normalize.IsSlug)
		register("hexcolor", IsHexColor)
		register("httpurl", IsValidHTTPURL)
		register("objectid", IsValidObjectID)
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Supported validation rules (from pantry/validate):
//   - required, email, oneof=a b c, min=N, max=N
//
// Custom validation rules (registered by this package):
//   - slug: lowercase letters, digits, '.', '_' and '-'
//   - hexcolor: a #rrggbb color
//   - httpurl: an http:// or https:// URL, or a root-relative path
//   - objectid: a MongoDB ObjectID hex string
func Validate(s any) *Result {
	result := &Result{}

	v := getValidator()
	err := v.Struct(s)
	if err == nil {
		return result
	}

	// Get field labels from struct tags
	labels := getFieldLabels(s)

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}

			msg := formatMessage(label, e.Rule, e.Param)
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: msg,
			})
		}
	}

	return result
}

// getFieldLabels extracts the "label" tag from struct fields.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Get the field name (use json tag if available)
		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		// Get the label
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}

	return labels
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email format"
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "min":
		return label + " must be at least " + param + " characters"
	case "max":
		return label + " must be at most " + param + " characters"
	case "slug":
		return label + " may contain only lowercase letters, digits, '.', '_' and '-'"
	case "hexcolor":
		return label + " must be a color like #1a2b3c"
	case "httpurl":
		return label + " must be a URL starting with http://, https:// or /"
	case "objectid":
		return label + " is not a valid ID"
	default:
		return label + " is invalid"
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a #rrggbb color.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// IsValidHTTPURL checks for an absolute http(s) URL or a root-relative path
// such as an uploaded file served by this server.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
