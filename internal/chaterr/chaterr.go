// Package chaterr defines the error taxonomy shared by the chat service
// and the HTTP layer. Handlers map these to status codes with HTTPStatus;
// everything else wraps them with pkg/errors so the sentinel survives.
package chaterr

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
)

func Forbiddenf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrForbidden, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func InvalidArgumentf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

func Unavailable(err error, msg string) error {
	return errors.Wrapf(ErrUnavailable, "%s: %v", msg, err)
}

// HTTPStatus maps an error to the status code its category carries.
// Unknown errors are treated as unavailable persistence.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
