// Package services – contact validation
//
// Validation rules for the visitor contact form shown when a session enters
// the awaiting-contact state. Kept as free functions so the conversation
// service and its tests can exercise them directly.
package services

import (
	"regexp"
	"strings"
)

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// phoneStripper drops the separators people type into phone numbers.
var phoneStripper = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")

// ValidateEmail reports whether s looks like local@domain.tld.
func ValidateEmail(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

// NormalizePhone strips whitespace, hyphens, and parentheses and returns the
// bare digit string. ok is false unless the result is all digits and 10–15
// characters long. A leading "+" is tolerated and removed.
func NormalizePhone(s string) (digits string, ok bool) {
	s = phoneStripper.Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || len(s) > 15 {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// ValidateContact checks a contact submission: at least one of phone/email
// must be present and valid. It returns the normalized values, or the
// field-specific error of the first invalid input.
func ValidateContact(phone, email string) (normPhone, normEmail string, err error) {
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)
	if phone == "" && email == "" {
		return "", "", ErrContactMissing
	}
	if phone != "" {
		d, ok := NormalizePhone(phone)
		if !ok {
			return "", "", ErrInvalidPhone
		}
		normPhone = d
	}
	if email != "" {
		if !ValidateEmail(email) {
			return "", "", ErrInvalidEmail
		}
		normEmail = email
	}
	return normPhone, normEmail, nil
}
