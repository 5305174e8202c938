package provider

import "fmt"

// StatusError is returned when the provider answers with a status
// other than 200. Body holds the response body exactly as received.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("provider: http status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps failures that happen before a response is
// received: DNS, connection, TLS, timeouts and context cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "provider: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a 200 response does not have
// the expected shape.
type MalformedResponseError struct {
	// Reason is a short description such as "no choices".
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return "provider: malformed response: " + e.Reason + ": " + e.Err.Error()
	}
	return "provider: malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
