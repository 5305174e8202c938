package provider

import (
	"context"
	"net/http"
)

// HTTPClient is the minimal interface required from an HTTP client.
// It matches the Do method on *http.Client and allows callers to
// substitute custom clients or middleware.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOptions are shared options for all provider clients.
// Providers typically accept these options in their constructors.
type ClientOptions struct {
	// BaseURL is the root URL of the provider API.
	BaseURL string
	// APIKey is the default bearer token used for authentication. It
	// may be overridden per call with LogprobRequest.APIKey.
	APIKey string
	// HTTPClient is the underlying HTTP client. If nil, a default
	// client should be used by the provider.
	HTTPClient HTTPClient
	// Headers contains additional HTTP headers that providers should
	// attach to every outbound request. Provider implementations
	// decide how these interact with their own required headers.
	Headers http.Header
}

// LogprobModel is the provider-level interface for scoring a prompt.
// Implementations ask the provider to echo the prompt and return the
// log-probability of every prompt token.
type LogprobModel interface {
	Score(ctx context.Context, req *LogprobRequest) (*LogprobResponse, error)
}

// LogprobRequest describes a single scoring call.
type LogprobRequest struct {
	// Model is informational; the model identifier is bound when the
	// LogprobModel is constructed.
	Model string
	// Prompt is sent verbatim.
	Prompt string
	// APIKey, when non-nil, replaces the client's default key for this
	// call only. An empty string is sent as-is.
	APIKey *string
}

// TokenLogprob pairs a token with its log-probability. Logprob is nil
// for the first token of a sequence, which has no preceding context.
type TokenLogprob struct {
	Token   string
	Logprob *float64
}

// LogprobResponse holds the scored tokens in prompt order.
type LogprobResponse struct {
	Tokens []TokenLogprob
}
