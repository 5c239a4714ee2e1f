// Package services defines the business logic for guidebooks, properties,
// chat sessions, and escalations. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrGuidebookNotFound indicates that the requested guidebook does not
	// exist, by ID or by chat slug.
	ErrGuidebookNotFound = errors.New("guidebook not found")

	// ErrPropertyNotFound indicates that the requested property does not exist.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrManagerNotFound indicates that the requested property manager does
	// not exist.
	ErrManagerNotFound = errors.New("property manager not found")

	// ErrSessionNotFound indicates that the requested chat session does not
	// exist or does not belong to the calling visitor.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when a turn or contact action targets a
	// session that has already been closed.
	ErrSessionEnded = errors.New("session ended")

	// ErrAwaitingContact is returned when a new message arrives while the
	// session is waiting for the visitor's contact details.
	ErrAwaitingContact = errors.New("session awaiting contact")

	// ErrNotAwaitingContact is returned when a contact submission or skip
	// arrives for a session that never asked for contact details.
	ErrNotAwaitingContact = errors.New("session not awaiting contact")

	// ErrEmptyPrompt is returned when a visitor message contains no text.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a visitor message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrContactMissing is returned when a contact submission carries neither
	// a phone number nor an email address.
	ErrContactMissing = errors.New("phone or email required")

	// ErrInvalidPhone is returned when the submitted phone number fails
	// validation.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidEmail is returned when the submitted email address fails
	// validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrDuplicateEmail is returned when registering a manager with an email
	// that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on staff login failure. Unknown
	// username and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
