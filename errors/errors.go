package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure for the HTTP boundary.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUpstream    Kind = "upstream"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindValidation:  http.StatusBadRequest,
	KindUpstream:    http.StatusBadGateway,
	KindUnavailable: http.StatusServiceUnavailable,
	KindInternal:    http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets pkg/errors.Cause walk through an *Error.
func (e *Error) Cause() error {
	return e.Err
}

func E(kind Kind, op string, err error, message string) *Error {
	code, ok := kindStatus[kind]
	if !ok {
		kind = KindInternal
		code = http.StatusInternalServerError
	}
	if err != nil {
		err = pkgerrors.WithStack(err)
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *Error {
	return E(KindValidation, op, err, message)
}

// Upstream reports a failure of an external provider. When message is
// empty the cause's text is used verbatim.
func Upstream(op string, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	}
	return E(KindUpstream, op, err, message)
}

func Unavailable(op string, err error, message string) *Error {
	return E(KindUnavailable, op, err, message)
}

func Internal(op string, err error, message string) *Error {
	return E(KindInternal, op, err, message)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err; errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsUpstream(err error) bool    { return KindOf(err) == KindUpstream }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
