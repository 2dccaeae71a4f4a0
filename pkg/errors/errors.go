package errors

import "fmt"

// ErrorType classifies failures of an album download run
type ErrorType string

const (
	// ErrorTypeConfiguration means a required input is missing, e.g. the
	// album is password protected and no password was supplied.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeAuth means the album rejected the supplied password.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeProtocol means the album page did not look like a page this
	// tool understands (challenge token or embedded listing missing).
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeTransport means one item download failed over HTTP.
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a classified album download error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a classified error without an HTTP status code
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode creates a classified error carrying an HTTP status code
func NewWithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// IsFatal reports whether an error type must abort the whole run before
// any downloads are scheduled. Transport errors stay local to one item.
func IsFatal(t ErrorType) bool {
	switch t {
	case ErrorTypeConfiguration, ErrorTypeAuth, ErrorTypeProtocol:
		return true
	default:
		return false
	}
}

// TypeOf extracts the error type from err, walking wrapped errors.
// Unclassified errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrorTypeUnknown
}

// IsFatalError reports whether err carries a fatal error type
func IsFatalError(err error) bool {
	return IsFatal(TypeOf(err))
}
