package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bikeshop/internal/repos"
)

var (
	ErrBadCreds        = errors.New("invalid email or password")
	ErrAccountDisabled = errors.New("user account is disabled")
	ErrNotFound        = repos.ErrNotFound
	ErrEmailDelivery   = errors.New("failed to send reset email. please try again")
)

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string][]string{field: {msg}}}
}

// RuleError is a business-rule conflict (insufficient stock, cannot cancel, duplicate email, ...).
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func ruleErr(format string, args ...any) *RuleError {
	return &RuleError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource and matches ErrNotFound with errors.Is.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(what string, err error) error {
	if errors.Is(err, repos.ErrNotFound) {
		return &NotFoundError{What: what}
	}
	return err
}
