package employee

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxUploadSize is the largest profile picture accepted, in bytes.
const MaxUploadSize = 2 << 20

var phonePattern = regexp.MustCompile(`^(?:\+94|0)?[1-9][0-9]{8}$`)

// validate is read-only after init, so Validate is safe for concurrent use.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("lkphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseTimestamp(fl.Field().String())
		return ok
	})
}

// Violation is a single field-scoped validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the violations of a draft in field declaration order,
// at most one per field.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the violations keyed by field name.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = v.Message
	}
	return out
}

// Message returns the violation for field, or "".
func (e *ValidationError) Message(field string) string {
	for _, v := range e.Violations {
		if v.Field == field {
			return v.Message
		}
	}
	return ""
}

type fieldRules struct {
	field    string
	messages map[string]string
}

// rules maps a struct namespace to the public field name and the message
// for each validator tag.
var rules = map[string]fieldRules{
	"Draft.FirstName": {field: "firstName", messages: map[string]string{
		"required": "First name is required",
		"min":      "First name must be at least 6 characters",
		"max":      "First name cannot exceed 10 characters",
		"alpha":    "First name must only contain alphabets",
	}},
	"Draft.LastName": {field: "lastName", messages: map[string]string{
		"required": "Last name is required",
		"min":      "Last name must be at least 6 characters",
		"max":      "Last name cannot exceed 10 characters",
		"alpha":    "Last name must only contain alphabets",
	}},
	"Draft.Email": {field: "email", messages: map[string]string{
		"required": "Email is required",
		"email":    "Invalid email address",
	}},
	"Draft.PhoneNumber": {field: "phoneNumber", messages: map[string]string{
		"required": "Phone number is required",
		"lkphone":  "Invalid Sri Lankan phone number",
	}},
	"Draft.Gender": {field: "gender", messages: map[string]string{
		"required": "Gender is required",
		"oneof":    "Gender must be either 'M' for Male or 'F' for Female",
	}},
	"Draft.Upload.Size": {field: "profilePicture", messages: map[string]string{
		"max": "Profile picture must be 2MB or smaller",
	}},
	"Draft.Upload.ContentType": {field: "profilePicture", messages: map[string]string{
		"required": "Profile picture must be a JPEG, PNG, GIF or WEBP image",
		"oneof":    "Profile picture must be a JPEG, PNG, GIF or WEBP image",
	}},
	"Draft.CreatedAt": {field: "createdAt", messages: map[string]string{
		"isodate": "Invalid date format for createdAt",
	}},
}

// Validate normalizes d and checks every field. It returns the normalized
// draft, or a *ValidationError. The input is never modified.
func Validate(d Draft) (Draft, error) {
	d.Normalize()

	err := validate.Struct(d)
	if err == nil {
		return d, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Draft{}, err
	}

	out := &ValidationError{}
	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		v := violationFor(fe)
		if seen[v.Field] {
			continue
		}
		seen[v.Field] = true
		out.Violations = append(out.Violations, v)
	}
	return Draft{}, out
}

// CheckField returns the message for a single field of d, or "" when that
// field is valid. Other fields are ignored.
func CheckField(d Draft, field string) string {
	_, err := Validate(d)
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message(field)
	}
	return ""
}

func violationFor(fe validator.FieldError) Violation {
	rule, ok := rules[fe.StructNamespace()]
	if !ok {
		return Violation{Field: fe.Field(), Message: fe.Error()}
	}
	msg, ok := rule.messages[fe.Tag()]
	if !ok {
		msg = "Invalid " + rule.field
	}
	return Violation{Field: rule.field, Message: msg}
}
