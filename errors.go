package logprobs

import (
	"context"
	"errors"

	"github.com/ncecere/logprobs/provider"
)

// Package-level error values and types returned by the logprobs package.
var (
	// ErrMissingModel is returned when a ScoreRequest does not specify
	// a LogprobModel.
	ErrMissingModel = errors.New("logprobs: missing LogprobModel in request")
)

// InvalidArgumentError indicates that a function argument is invalid.
type InvalidArgumentError struct {
	// Parameter is the name of the invalid parameter.
	Parameter string
	// Value is the offending value.
	Value any
	// Message describes why the value is considered invalid.
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "logprobs: invalid argument for parameter " + e.Parameter + ": " + e.Message
}

// Classify maps an error returned by Score to the Result kind it
// represents. A nil error is KindOK.
func Classify(err error) ResultKind {
	if err == nil {
		return KindOK
	}
	if _, ok := asStatusError(err); ok {
		return KindErr
	}
	var me *provider.MalformedResponseError
	if errors.As(err, &me) {
		return KindMalformed
	}
	var te *provider.TransportError
	if errors.As(err, &te) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindInvalid
}

func asStatusError(err error) (*provider.StatusError, bool) {
	var se *provider.StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
