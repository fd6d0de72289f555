package domain

import (
	"context"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodeUpstream         ErrorCode = "UPSTREAM"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var (
	// ErrDatasetNotFound reports that no dataset carries the requested name.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrNoQueryableResource reports that a dataset exists but none of its
	// resources is datastore-active.
	ErrNoQueryableResource = errors.New("dataset has no queryable resource")
	// ErrInvalidArguments reports tool arguments that do not match the schema.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Error is a coded failure surfaced to tool callers.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
		}
	}
	if found, ok := CodeFrom(err); ok {
		code = found
	}
	return E(code, op, "", err)
}

// CodeCarrier is implemented by errors that know their own code, such as
// upstream catalog failures.
type CodeCarrier interface {
	ErrorCode() ErrorCode
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	var carrier CodeCarrier
	if errors.As(err, &carrier) {
		if code := carrier.ErrorCode(); code != "" {
			return code, true
		}
	}
	switch {
	case errors.Is(err, ErrInvalidArguments):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrDatasetNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrNoQueryableResource):
		return CodeFailedPrecond, true
	case errors.Is(err, context.Canceled):
		return CodeCanceled, true
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded, true
	default:
		return "", false
	}
}
