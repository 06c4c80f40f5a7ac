package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("unable to login")
	// ErrUnauthenticated wraps every reason a bearer token is rejected.
	ErrUnauthenticated = errors.New("please authenticate")
	// ErrInvalidToken is returned when a token's signature or payload does not verify.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	// ErrRevokedSession is returned when the token's user is gone or the token was logged out.
	ErrRevokedSession = fmt.Errorf("%w: revoked token or unknown user", ErrUnauthenticated)
	// ErrNotFound covers both missing records and records owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when signing up or updating to an email in use.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError describes rejected input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
