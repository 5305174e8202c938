package logprobs

import (
	"context"

	"github.com/ncecere/logprobs/openai"
	"github.com/ncecere/logprobs/provider"
	"github.com/ncecere/logprobs/registry"
)

// Aliases to provider-level types so users can work through the
// logprobs package while providers implement the shared interfaces.
type (
	// TokenProbability pairs a token with its log-probability. Logprob
	// is nil only for the first token of a sequence.
	TokenProbability = provider.TokenLogprob
	// LogprobModel is a provider-agnostic scoring model.
	LogprobModel = provider.LogprobModel
)

// ResultKind tags the variant held by a Result.
type ResultKind string

const (
	// KindOK means Tokens holds the scored prompt.
	KindOK ResultKind = "ok"
	// KindErr means the server answered with a non-200 status. Error
	// holds the raw response body.
	KindErr ResultKind = "error"
	// KindTransport means no response was received (DNS, connection,
	// timeout or cancellation).
	KindTransport ResultKind = "transport_error"
	// KindMalformed means a 200 response did not have the expected shape.
	KindMalformed ResultKind = "malformed_response"
	// KindInvalid means the call was rejected before any request was
	// sent, for example because no model was given.
	KindInvalid ResultKind = "invalid_request"
)

// Result is the outcome of a single scoring call. Exactly one variant
// is populated; branch on Kind (or OK) before reading the payload.
type Result struct {
	Kind ResultKind
	// Tokens is set for KindOK.
	Tokens []TokenProbability
	// Error is set for every other kind. For KindErr it is the server's
	// response body, unmodified.
	Error string
	// StatusCode is the HTTP status for KindErr.
	StatusCode int
	// Err is the underlying error for non-OK kinds.
	Err error
}

// OK reports whether r holds scored tokens.
func (r Result) OK() bool { return r.Kind == KindOK }

// ScoreRequest describes a scoring request.
type ScoreRequest struct {
	// Model is the scoring model.
	Model LogprobModel
	// ModelName is an optional label passed to middleware for logging.
	ModelName string
	// Prompt is the text to score. It is sent verbatim.
	Prompt string
	// APIKey, when non-nil, overrides the model client's key for this call.
	APIKey *string
}

// ScoreResponse holds the scored prompt tokens in order.
type ScoreResponse struct {
	Tokens []TokenProbability
}

// Score calls the underlying LogprobModel.Score.
//
// Errors:
//   - ErrMissingModel if req.Model is nil.
//   - *provider.StatusError for non-200 responses.
//   - *provider.TransportError when no response was received.
//   - *provider.MalformedResponseError for unexpected 200 bodies.
func Score(ctx context.Context, req ScoreRequest) (ScoreResponse, error) {
	if req.Model == nil {
		return ScoreResponse{}, ErrMissingModel
	}

	res, err := req.Model.Score(ctx, &provider.LogprobRequest{
		Model:  req.ModelName,
		Prompt: req.Prompt,
		APIKey: req.APIKey,
	})
	if err != nil {
		return ScoreResponse{}, err
	}
	return ScoreResponse{Tokens: res.Tokens}, nil
}

// ScoreWithRegistry looks up the model by name in the provided
// registry and then delegates to Score. Any Model value in req is
// ignored and replaced with the resolved model.
//
// Errors:
//   - InvalidArgumentError if reg is nil.
//   - Any error returned by reg.LogprobModel.
//   - Any error returned by Score.
func ScoreWithRegistry(ctx context.Context, reg registry.Registry, modelName string, req ScoreRequest) (ScoreResponse, error) {
	if reg == nil {
		return ScoreResponse{}, &InvalidArgumentError{Parameter: "reg", Value: nil, Message: "registry must not be nil"}
	}

	model, err := reg.LogprobModel(modelName)
	if err != nil {
		return ScoreResponse{}, err
	}

	req.Model = model
	if req.ModelName == "" {
		req.ModelName = modelName
	}
	return Score(ctx, req)
}

// RequestCompletion sends prompt to the public OpenAI completions
// endpoint with credential as bearer token and returns the
// log-probability of every prompt token plus one generated token.
//
// The endpoint and model are fixed (openai.DefaultBaseURL,
// openai.DefaultModel); environment variables are not consulted. The
// credential is sent unchanged, without validation. Each call performs
// exactly one round trip and keeps no state.
func RequestCompletion(ctx context.Context, credential, prompt string) Result {
	client, err := openai.NewClient(provider.ClientOptions{
		BaseURL: openai.DefaultBaseURL,
	})
	if err != nil {
		return NewResult(ScoreResponse{}, err)
	}
	return RequestCompletionWithModel(ctx, client.LogprobModel(openai.DefaultModel), credential, prompt)
}

// RequestCompletionWithModel is RequestCompletion against an arbitrary
// LogprobModel, such as one pointed at a compatible endpoint.
func RequestCompletionWithModel(ctx context.Context, model LogprobModel, credential, prompt string) Result {
	res, err := Score(ctx, ScoreRequest{
		Model:  model,
		Prompt: prompt,
		APIKey: &credential,
	})
	return NewResult(res, err)
}

// NewResult converts the outcome of Score into a Result.
func NewResult(res ScoreResponse, err error) Result {
	if err == nil {
		return Result{Kind: KindOK, Tokens: res.Tokens}
	}
	out := Result{Kind: Classify(err), Error: err.Error(), Err: err}
	if se, ok := asStatusError(err); ok {
		out.Error = se.Body
		out.StatusCode = se.StatusCode
	}
	return out
}
