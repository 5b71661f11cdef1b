package utils

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

const (
	passwordMinLength    = 8
	passwordMaxLength    = 128
	displayNameMaxLength = 100
)

func ValidateUsername(s string) error {
	if !usernameRe.MatchString(s) {
		return errors.New("username must be 3-50 characters of letters, digits, and underscores")
	}
	return nil
}

func ValidateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("invalid email address")
	}
	return nil
}

func ValidateDisplayName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("display name is required")
	}
	if len(s) > displayNameMaxLength {
		return errors.New("display name too long (max 100 chars)")
	}
	return nil
}

func ValidatePassword(s string) error {
	if len(s) < passwordMinLength {
		return errors.New("password too short (min 8 chars)")
	}
	if len(s) > passwordMaxLength {
		return errors.New("password too long (max 128 chars)")
	}
	if !upperRe.MatchString(s) {
		return errors.New("password must include at least one uppercase letter")
	}
	if !lowerRe.MatchString(s) {
		return errors.New("password must include at least one lowercase letter")
	}
	if !digitRe.MatchString(s) {
		return errors.New("password must include at least one digit")
	}
	return nil
}
