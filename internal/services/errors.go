package services

import (
	"errors"

	"github.com/learnity/registration-service/internal/validator"
)

// Use shared validation error types from the validator package
type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

// Sentinel errors the handlers map onto the HTTP error taxonomy.
var (
	// 400 class
	ErrCaptchaFailed      = errors.New("captcha verification failed")
	ErrProviderRejected   = errors.New("identity provider rejected the request")
	ErrInvalidDateOfBirth = errors.New("date of birth could not be parsed")
	ErrInvalidHourlyRate  = errors.New("hourly rate could not be parsed")

	// 401 class
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSubjectMismatch = errors.New("token subject does not match supplied subject id")

	// 404 class
	ErrApplicationNotFound = errors.New("application not found")
	ErrUserNotFound        = errors.New("user not found")

	// 409 class
	ErrApplicationExists = errors.New("application already submitted")
	ErrEmailTaken        = errors.New("email already registered to another account")
	ErrSubjectTaken      = errors.New("subject id already registered")
	ErrAlreadyModerated  = errors.New("application already reviewed")
	ErrWriteConflict     = errors.New("write conflict persisted across retries")

	// 429 class
	ErrRateLimited        = errors.New("too many attempts, slow down")
	ErrSuspiciousActivity = errors.New("request flagged as suspicious")

	// 500 class
	ErrDatabaseSync = errors.New("account created but profile persistence failed, contact support")
	ErrInternal     = errors.New("internal error")
)

// IsConflict reports whether err maps to HTTP 409
func IsConflict(err error) bool {
	return errors.Is(err, ErrApplicationExists) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrSubjectTaken) ||
		errors.Is(err, ErrAlreadyModerated) ||
		errors.Is(err, ErrWriteConflict)
}

// IsRateLimited reports whether err maps to HTTP 429
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSuspiciousActivity)
}
