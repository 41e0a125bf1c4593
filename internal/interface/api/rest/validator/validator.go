package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"filevault-api/internal/interface/api/rest/dto/auth"
	"filevault-api/internal/interface/api/rest/dto/user"
)

const (
	minPasswordLen    = 8
	maxPasswordLen    = 72 // bcrypt safe
	minDisplayNameLen = 2
	maxDisplayNameLen = 64
)

var ErrInvalidPage = errors.New("page must be a positive integer")

func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return 0, ErrInvalidPage
	}
	return p, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

func ValidateRegister(r auth.RegisterRequest) map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)
	validatePassword(errs, r.Password)
	if msg := displayNameError(r.DisplayName); msg != "" {
		errs["display_name"] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateLogin(r auth.LoginRequest) map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)
	// length is not checked here, a wrong password is just a wrong password
	if strings.TrimSpace(r.Password) == "" {
		errs["password"] = "password is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateProfile(r user.UpdateProfileRequest) map[string]string {
	if msg := displayNameError(r.DisplayName); msg != "" {
		return map[string]string{"display_name": msg}
	}
	return nil
}

func validateEmail(errs map[string]string, raw string) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		errs["email"] = "email is required"
	} else if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		errs["email"] = "invalid email format"
	}
}

func validatePassword(errs map[string]string, password string) {
	// not trimmed, spaces are valid password characters
	if strings.TrimSpace(password) == "" {
		errs["password"] = "password is required"
	} else if l := utf8.RuneCountInString(password); l < minPasswordLen || l > maxPasswordLen {
		errs["password"] = fmt.Sprintf("password length must be %d-%d characters", minPasswordLen, maxPasswordLen)
	}
}

func displayNameError(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "display_name is required"
	}
	if l := utf8.RuneCountInString(name); l < minDisplayNameLen || l > maxDisplayNameLen {
		return fmt.Sprintf("display_name length must be %d-%d characters", minDisplayNameLen, maxDisplayNameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "display_name contains control characters"
		}
	}
	return ""
}
