package imapcore

import (
	"fmt"
	"strings"
)

// StatusResponseType represents the type of a status response.
type StatusResponseType string

const (
	StatusResponseTypeOK      StatusResponseType = "OK"
	StatusResponseTypeNO      StatusResponseType = "NO"
	StatusResponseTypeBAD     StatusResponseType = "BAD"
	StatusResponseTypeBYE     StatusResponseType = "BYE"
	StatusResponseTypePREAUTH StatusResponseType = "PREAUTH"
)

// ResponseCode represents a response code in brackets. Only the codes this
// core's own domain (APPEND, IDLE, AUTHENTICATE) actually produces or reacts
// to are enumerated here; StatusResponse.Code is just a string type, so a
// decoder needing the rest of the IMAP response-code registry can still set
// it to an arbitrary value.
type ResponseCode string

const (
	ResponseCodeAlert      ResponseCode = "ALERT"
	ResponseCodeCapability ResponseCode = "CAPABILITY"
	ResponseCodeTryCreate  ResponseCode = "TRYCREATE"
	ResponseCodeAppendUID  ResponseCode = "APPENDUID"
)

// StatusResponse represents an IMAP status response.
type StatusResponse struct {
	// Type is the response type (OK, NO, BAD, BYE, PREAUTH).
	Type StatusResponseType
	// Code is the optional response code.
	Code ResponseCode
	// CodeArg is the optional argument to the response code.
	CodeArg interface{}
	// Text is the human-readable text.
	Text string
}

// Error returns the status response as an error string.
func (r *StatusResponse) Error() string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	if r.Code != "" {
		b.WriteString(" [")
		b.WriteString(string(r.Code))
		if r.CodeArg != nil {
			b.WriteString(" ")
			fmt.Fprint(&b, r.CodeArg)
		}
		b.WriteString("]")
	}
	if r.Text != "" {
		b.WriteString(" ")
		b.WriteString(r.Text)
	}
	return b.String()
}

// IMAPError is an error type that wraps an IMAP status response.
type IMAPError struct {
	*StatusResponse
}

// Error implements the error interface.
func (e *IMAPError) Error() string {
	return e.StatusResponse.Error()
}

// Unwrap returns nil (no wrapped error).
func (e *IMAPError) Unwrap() error {
	return nil
}
