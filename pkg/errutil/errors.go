package errutil

import (
	"errors"
	"net/http"
)

// HttpError pairs an error with the HTTP status code it should surface as.
type HttpError struct {
	code int
	err  error
}

func (e *HttpError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *HttpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *HttpError) Code() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return e.code
}

func newHttpError(code int, err error) *HttpError {
	return &HttpError{
		code: code,
		err:  err,
	}
}

func BadRequestError(err error) error {
	return newHttpError(http.StatusBadRequest, err)
}

func ValidationError(err error) error {
	return newHttpError(http.StatusBadRequest, err)
}

func UnauthorizedError(err error) error {
	return newHttpError(http.StatusUnauthorized, err)
}

func NotFoundError(err error) error {
	return newHttpError(http.StatusNotFound, err)
}

func ConflictError(err error) error {
	return newHttpError(http.StatusConflict, err)
}

func UpstreamError(err error) error {
	return newHttpError(http.StatusBadGateway, err)
}

// ParseHttpError maps any error to a status code and message.
// Errors not created by this package become 500s.
func ParseHttpError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	httpErr := new(HttpError)
	if errors.As(err, &httpErr) {
		return httpErr.Code(), httpErr.Error()
	}

	return http.StatusInternalServerError, err.Error()
}
