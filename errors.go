package mlsclient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by New when Config.APIKey is empty
	ErrMissingAPIKey = errors.New("mlsclient: api key is required")
	// ErrMissingMemberID is returned by New when Config.MemberID is empty
	ErrMissingMemberID = errors.New("mlsclient: member id is required")
	// ErrMissingEndpoint is returned by New when Config.Endpoint is empty
	ErrMissingEndpoint = errors.New("mlsclient: endpoint is required")
	// ErrNilTransport is returned by NewWithTransport when no transport is given
	ErrNilTransport = errors.New("mlsclient: transport is required")
)

// ConnectionError means the client could not bind to the remote service.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mlsclient: cannot bind to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteCallError is a fault raised by the remote service or the transport while
// running an operation. Message keeps the fault text as the service sent it.
type RemoteCallError struct {
	Operation string
	Code      string
	Message   string
	Err       error
}

func (e *RemoteCallError) Error() string {
	var b strings.Builder

	b.WriteString("mlsclient: ")
	b.WriteString(e.Operation)
	b.WriteString(" failed")

	if e.Code != "" {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	return b.String()
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// UnknownCriteriaError lists search criteria keys that are not part of the
// SearchParameters schema.
type UnknownCriteriaError struct {
	Keys []string
}

func (e *UnknownCriteriaError) Error() string {
	return "mlsclient: unknown search criteria: " + strings.Join(e.Keys, ", ")
}

func remoteErr(op string, err error) error {
	var rce *RemoteCallError
	if errors.As(err, &rce) {
		return err
	}

	return &RemoteCallError{Operation: op, Message: err.Error(), Err: err}
}
