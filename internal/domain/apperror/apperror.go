// Package apperror holds the error taxonomy shared by the service and HTTP
// layers. Handlers map these to status codes with errors.Is.
package apperror

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed, entered data is incorrect")
	ErrMissingAsset    = errors.New("no image provided")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrNotFound        = errors.New("could not find resource")
	ErrConflict        = errors.New("resource already exists")
)

// Credential failures. All of them are Unauthenticated.
var (
	ErrMissingCredential = &credentialError{reason: "missing credential"}
	ErrInvalidCredential = &credentialError{reason: "invalid credential"}
	ErrExpiredCredential = &credentialError{reason: "credential expired"}
)

type credentialError struct {
	reason string
}

func (e *credentialError) Error() string { return e.reason }

func (e *credentialError) Unwrap() error { return ErrUnauthenticated }

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
