package services

import (
	"errors"
	"fmt"
)

// ErrorKind tags every failure the gateway can produce, so callers branch on
// kind instead of matching message text.
type ErrorKind string

const (
	KindCredentialsMissing       ErrorKind = "credentials_missing"
	KindInvalidCredentials       ErrorKind = "invalid_credentials"
	KindAccessForbidden          ErrorKind = "access_forbidden"
	KindProcessorUnreachable     ErrorKind = "processor_unreachable"
	KindTokenAcquisitionFailed   ErrorKind = "token_acquisition_failed"
	KindApprovalLinkMissing      ErrorKind = "approval_link_missing"
	KindCaptureDataMissing       ErrorKind = "capture_data_missing"
	KindOrderNotFound            ErrorKind = "order_not_found"
	KindProcessorRequestFailed   ErrorKind = "processor_request_failed"
	KindPaymentInitiationFailed  ErrorKind = "payment_initiation_failed"
	KindPaymentStatusUnavailable ErrorKind = "payment_status_unavailable"
	KindPaymentCaptureFailed     ErrorKind = "payment_capture_failed"
	KindUnknownPayment           ErrorKind = "unknown_payment"
)

// Error is the gateway's error type. Message is safe for API responses;
// Detail carries the upstream error payload and is only surfaced in
// development responses (it is always logged).
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func newErrorDetail(kind ErrorKind, message, detail string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// AsError unwraps err to the gateway Error type, if present anywhere in the
// chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
