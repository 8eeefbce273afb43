package errs

import (
	"codechat/pkg/response"
	"errors"
	"fmt"
)

var ErrUpstreamModel = response.NewError("codechat.upstream_model", "completion provider failure")
var ErrRecordNotFound = errors.New("record not found")

// ErrSkipFile marks a file an index run should pass over without
// treating it as a failure.
var ErrSkipFile = errors.New("file skipped")

var errorInvalidParamFmt = "invalid request params: %s %v"
var errorRecordNotFoundFmt = "%s not found by %v"
var errorMissingParamFmt = "missing required param: %s"

func NewInvalidParamErr(name string, value interface{}) error {
	return fmt.Errorf(errorInvalidParamFmt, name, value)
}

// NewRecordNotFoundErr wraps ErrRecordNotFound so callers can match it
// with errors.Is and map it to a 404.
func NewRecordNotFoundErr(name string, value interface{}) error {
	return fmt.Errorf(errorRecordNotFoundFmt+": %w", name, value, ErrRecordNotFound)
}

func NewMissingParamError(name string) error {
	return fmt.Errorf(errorMissingParamFmt, name)
}

// IsNotFound reports whether err is (or wraps) a missing-record condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// IsSkip reports whether err is (or wraps) the skip-file condition.
func IsSkip(err error) bool {
	return errors.Is(err, ErrSkipFile)
}
