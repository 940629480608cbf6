package data

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Registration holds the fields submitted to signup.
type Registration struct {
	FullName        string
	Email           string
	Password        string
	ProfileImageURL string
}

// Validate checks the fields locally before anything is sent. Surrounding
// whitespace doesn't count, since it is trimmed off before sending.
func (r Registration) Validate() error {
	r = Registration{
		FullName:        strings.TrimSpace(r.FullName),
		Email:           strings.TrimSpace(r.Email),
		Password:        strings.TrimSpace(r.Password),
		ProfileImageURL: strings.TrimSpace(r.ProfileImageURL),
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName,
			validation.Required.Error("full name is required"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("invalid email format"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
		validation.Field(&r.ProfileImageURL,
			validation.When(r.ProfileImageURL != "", is.URL.Error("invalid profile image url")),
		),
	)
}
