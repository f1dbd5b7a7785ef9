package apperrors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindUnknown    Kind = "unknown"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternalError     = "INTERNAL_ERROR"
)

type AppError struct {
	Kind      Kind
	Code      string
	Message   string
	Retryable bool
	Silent    bool
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func Permission(reason string) *AppError {
	return New(KindPermission, CodeForbidden, reason)
}

func Validation(message string) *AppError {
	return New(KindValidation, CodeValidation, message)
}

func NotFound(what string) *AppError {
	return New(KindValidation, CodeNotFound, what+" not found")
}

// noRowsMessage is what the hosted REST layer returns when a single-row read matched nothing.
const noRowsMessage = "multiple (or no) rows returned"

// Classify maps any error onto the application taxonomy. An *AppError anywhere in the chain is
// returned as is; unmatched errors become unknown and retryable.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), noRowsMessage) {
		return Wrap(err, KindValidation, CodeNotFound, "resource not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(err, pqErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Kind: KindNetwork, Code: CodeUnavailable, Message: "request timed out", Retryable: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Kind: KindNetwork, Code: CodeUnavailable, Message: "request cancelled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &AppError{Kind: KindNetwork, Code: CodeUnavailable, Message: "unable to reach the server", Retryable: true, Err: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "jwt"), strings.Contains(lower, "token is expired"), strings.Contains(lower, "invalid token"):
		return Wrap(err, KindAuth, CodeUnauthorized, "session expired, please sign in again")
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "broken pipe"), strings.Contains(lower, "no such host"):
		return &AppError{Kind: KindNetwork, Code: CodeUnavailable, Message: "unable to reach the server", Retryable: true, Err: err}
	}

	return &AppError{Kind: KindUnknown, Code: CodeInternalError, Message: "something went wrong", Retryable: true, Err: err}
}

func classifyPostgres(err error, pqErr *pq.Error) *AppError {
	switch pqErr.Code {
	case "42501":
		return Wrap(err, KindPermission, CodeForbidden, "you do not have access to this resource")
	case "23505":
		return Wrap(err, KindValidation, CodeAlreadyExists, "this record already exists")
	case "23503":
		return Wrap(err, KindValidation, CodeValidation, "referenced record does not exist")
	case "23514", "22P02", "23502":
		return Wrap(err, KindValidation, CodeValidation, "invalid input")
	case "P0002":
		return Wrap(err, KindValidation, CodeNotFound, "resource not found")
	}
	if pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57" {
		return &AppError{Kind: KindNetwork, Code: CodeUnavailable, Message: "database unavailable", Retryable: true, Err: err}
	}
	if pqErr.Code.Class() == "28" {
		return Wrap(err, KindAuth, CodeUnauthorized, "database authentication failed")
	}
	return &AppError{Kind: KindUnknown, Code: CodeInternalError, Message: "something went wrong", Retryable: true, Err: err}
}

// userDataTables are the tables whose rows disappear in the account deletion cascade.
var userDataTables = map[string]struct{}{
	"users":             {},
	"friendships":       {},
	"group_memberships": {},
	"notifications":     {},
}

// SuppressAfterDeletion downgrades the row-not-found errors that follow an account deletion on
// user data tables to silent no-ops. Any other error is classified normally.
func SuppressAfterDeletion(err error, table string) *AppError {
	appErr := Classify(err)
	if appErr == nil {
		return nil
	}
	if _, ok := userDataTables[table]; !ok || appErr.Code != CodeNotFound {
		return appErr
	}
	return &AppError{
		Kind:    appErr.Kind,
		Code:    appErr.Code,
		Message: appErr.Message,
		Silent:  true,
		Err:     err,
	}
}

func IsRetryable(err error) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.Retryable
}

func IsSilent(err error) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.Silent
}
