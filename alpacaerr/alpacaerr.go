// Package alpacaerr provides the integer-coded, message-bearing error
// taxonomy shared by every device driver and the HTTP pipeline. It plays
// the same role for this hub that pi.GCS2Err plays for a single GCS2
// controller, generalized to the fixed Alpaca code set rather than one
// device's error table.
package alpacaerr

import "fmt"

// Code is one of the wire-visible Alpaca error numbers. Values must not
// change; clients match on them.
type Code int

const (
	// NotImplemented marks a capability the target device does not have.
	NotImplemented Code = 0x400
	// InvalidValue covers request-parse failures and domain-value failures.
	InvalidValue Code = 0x401
	// NotConnected is raised by any non-identity operation on a disconnected device.
	NotConnected Code = 0x407
	// InvalidOperation covers state-dependent refusals.
	InvalidOperation Code = 0x40B
	// UnspecifiedError is the catch-all for failures with no better code.
	UnspecifiedError Code = 0x4FF
	// DriverError covers non-semantic failures surfaced by transport or SDK.
	DriverError Code = 0x500
)

// Error is a device-operation failure carrying an Alpaca error code and a
// human-readable message. It satisfies the standard error interface so
// drivers can return it like any other Go error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("alpaca error 0x%X: %s", int(e.Code), e.Message)
}

// New builds an *Error with the given code and formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotImplementedf builds a NotImplemented error.
func NotImplementedf(format string, args ...interface{}) *Error {
	return New(NotImplemented, format, args...)
}

// InvalidValuef builds an InvalidValue error.
func InvalidValuef(format string, args ...interface{}) *Error {
	return New(InvalidValue, format, args...)
}

// NotConnectedf builds a NotConnected error.
func NotConnectedf(format string, args ...interface{}) *Error {
	return New(NotConnected, format, args...)
}

// InvalidOperationf builds an InvalidOperation error.
func InvalidOperationf(format string, args ...interface{}) *Error {
	return New(InvalidOperation, format, args...)
}

// UnspecifiedErrorf builds an UnspecifiedError error.
func UnspecifiedErrorf(format string, args ...interface{}) *Error {
	return New(UnspecifiedError, format, args...)
}

// DriverErrorf builds a DriverError error.
func DriverErrorf(format string, args ...interface{}) *Error {
	return New(DriverError, format, args...)
}

// As extracts the Alpaca code and message from any error, falling back to
// UnspecifiedError for errors that were not raised through this package
// (e.g. a panic recovered by the HTTP middleware).
func As(err error) (Code, string) {
	if err == nil {
		return 0, ""
	}
	var ae *Error
	if e, ok := err.(*Error); ok {
		ae = e
	}
	if ae != nil {
		return ae.Code, ae.Message
	}
	return UnspecifiedError, err.Error()
}
