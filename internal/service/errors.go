package service

import (
	"errors"
	"net/http"

	"github.com/re-earth/re-earth-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Error is a failure with a user-facing message and the HTTP status to report it with.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "bad_request", Message: msg}
}

func unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: "conflict", Message: msg}
}

// notFoundAs maps a missing row to a 404 with msg and passes other errors through.
func notFoundAs(err error, msg string) error {
	var nf *repository.NotFoundError
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.As(err, &nf) {
		return notFound(msg)
	}
	return err
}

// conflictAs maps a unique-key violation to a 409 with msg and passes other errors through.
func conflictAs(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(msg)
	}
	return err
}
