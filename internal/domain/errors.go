package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrPhoneTaken         = errors.New("phone_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAlreadyReviewed    = errors.New("already_reviewed")
	ErrProposalsDisabled  = errors.New("proposals_disabled")
	ErrNotGroupMember     = errors.New("not_group_member")
	ErrMemberExists       = errors.New("member_exists")
	ErrResetTokenInvalid  = errors.New("reset_token_invalid")
	ErrResetTokenExpired  = errors.New("reset_token_expired")
	ErrValidation         = errors.New("validation")

	// ErrMisconfigured marks missing system state, e.g. a seeded dictionary
	// code that should always exist. It is an operator problem, never a
	// client one, and maps to a 500.
	ErrMisconfigured = errors.New("misconfigured")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
