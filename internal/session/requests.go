package session

import (
	"github.com/go-playground/validator/v10"
	"github.com/sweetshop/sweetshop-client/internal/auth/client"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
)

// Pre-flight messages shown on the authentication screen
const (
	MsgFillAllFields     = "Please fill in all fields"
	MsgPasswordsMismatch = "Passwords do not match"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
)

var validate = validator.New()

// LoginRequest is what the authentication screen submits to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is what the authentication screen submits to register
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	ContactNumber   string `json:"contact_number" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (r LoginRequest) credentials() client.Credentials {
	return client.Credentials{Email: r.Email, Password: r.Password}
}

func (r SignupRequest) profile() client.Profile {
	return client.Profile{
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Email:         r.Email,
		Password:      r.Password,
	}
}

// preflight validates req and reports the first failing rule in the order
// missing field, password mismatch, short password.
func preflight(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ValidationMessage(MsgFillAllFields)
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Tag()] = true
	}

	switch {
	case failed["required"]:
		return errors.ValidationMessage(MsgFillAllFields)
	case failed["eqfield"]:
		return errors.ValidationMessage(MsgPasswordsMismatch)
	case failed["min"]:
		return errors.ValidationMessage(MsgPasswordTooShort)
	default:
		return errors.ValidationMessage(MsgFillAllFields)
	}
}
