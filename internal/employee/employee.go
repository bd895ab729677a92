package employee

import (
	"strings"
	"time"
)

// Gender is one of the two enumerated tokens accepted by the employee service.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Label returns the human readable form used by forms and listings.
func (g Gender) Label() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	default:
		return string(g)
	}
}

// Record is an employee as returned by the employee service.
// ID and CreatedAt are assigned by the service and are empty on drafts.
type Record struct {
	ID             string `json:"_id,omitempty"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Gender         Gender `json:"gender"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// FullName joins first and last name with a single space.
func (r Record) FullName() string {
	return r.FirstName + " " + r.LastName
}

// CreatedTime parses CreatedAt. ok is false when it is absent or malformed.
func (r Record) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(r.CreatedAt)
}

// Draft returns the editable fields of the record, used to pre-fill edit forms.
func (r Record) Draft() Draft {
	return Draft{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		Gender:         r.Gender,
		ProfilePicture: r.ProfilePicture,
	}
}

// Draft is an unsaved record held by a form. Upload carries an optional
// profile picture selected by the user.
type Draft struct {
	FirstName      string  `json:"firstName" validate:"required,min=6,max=10,alpha"`
	LastName       string  `json:"lastName" validate:"required,min=6,max=10,alpha"`
	Email          string  `json:"email" validate:"required,email"`
	PhoneNumber    string  `json:"phoneNumber" validate:"required,lkphone"`
	Gender         Gender  `json:"gender" validate:"required,oneof=M F"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
	Upload         *Upload `json:"-"`
	CreatedAt      string  `json:"createdAt,omitempty" validate:"omitempty,isodate"`
}

// FullName joins first and last name with a single space.
func (d Draft) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Normalize trims surrounding whitespace from the email and the free-form
// fields. Names, phone number and gender are checked exactly as entered.
func (d *Draft) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
	d.ProfilePicture = strings.TrimSpace(d.ProfilePicture)
	d.CreatedAt = strings.TrimSpace(d.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 timestamps and plain dates.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
