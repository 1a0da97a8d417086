package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermission       = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrFormat           = errors.New("unreadable document")
	ErrSchema           = errors.New("invalid document schema")
	ErrAuth             = errors.New("authentication failed")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("request too large")
)

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Status int
	Code   string
	Err    error
	Fields []FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func wrap(sentinel error, format string, args ...any) error {
	if format == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

func Validation(fields ...FieldError) *Error {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return &Error{
		Status: http.StatusBadRequest,
		Code:   "validation_error",
		Err:    wrap(ErrValidation, "%s", strings.Join(msgs, "; ")),
		Fields: fields,
	}
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, "not_found", wrap(ErrNotFound, format, args...))
}

func Permission(format string, args ...any) *Error {
	return New(http.StatusForbidden, "permission_denied", wrap(ErrPermission, format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, "conflict", wrap(ErrConflict, format, args...))
}

func Format(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "format_error", wrap(ErrFormat, format, args...))
}

func Schema(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "schema_error", wrap(ErrSchema, format, args...))
}

func Auth(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, "unauthorized", wrap(ErrAuth, format, args...))
}

func UnsupportedMedia(format string, args ...any) *Error {
	return New(http.StatusUnsupportedMediaType, "unsupported_media_type", wrap(ErrUnsupportedMedia, format, args...))
}

func TooLarge(limit int64) *Error {
	return New(http.StatusRequestEntityTooLarge, "request_too_large", wrap(ErrTooLarge, "limit is %d bytes", limit))
}

// As extracts the *Error carried by err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
