package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ncecere/logprobs/provider"
	"github.com/ncecere/logprobs/providerutil"
)

// logprobModel implements provider.LogprobModel on top of the
// /v1/completions endpoint. Generation parameters are fixed so that the
// provider returns the prompt tokens with their log-probabilities and a
// single greedy continuation token.
type logprobModel struct {
	client *Client
	model  string
}

// Fields carry no omitempty: zero values are part of the request.
type openAILogprobRequest struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
	Logprobs         int     `json:"logprobs"`
	Echo             bool    `json:"echo"`
	Prompt           string  `json:"prompt"`
}

type openAILogprobResponse struct {
	Choices []struct {
		Logprobs *struct {
			Tokens        []string   `json:"tokens"`
			TokenLogprobs []*float64 `json:"token_logprobs"`
		} `json:"logprobs"`
	} `json:"choices"`
}

// LogprobModel returns a LogprobModel bound to the given completion
// model ID. An empty ID selects DefaultModel.
func (c *Client) LogprobModel(model string) provider.LogprobModel {
	if model == "" {
		model = DefaultModel
	}
	return &logprobModel{client: c, model: model}
}

func newLogprobRequest(model, prompt string) openAILogprobRequest {
	return openAILogprobRequest{
		Model:            model,
		Temperature:      0,
		MaxTokens:        1,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		Logprobs:         1,
		Echo:             true,
		Prompt:           prompt,
	}
}

func (m *logprobModel) Score(ctx context.Context, req *provider.LogprobRequest) (*provider.LogprobResponse, error) {
	buf, err := json.Marshal(newLogprobRequest(m.model, req.Prompt))
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.client.completionsURL(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	// Attach any custom headers first, then enforce required headers.
	for k, vs := range m.client.headers {
		for _, v := range vs {
			if v == "" {
				continue
			}
			httpReq.Header.Add(k, v)
		}
	}
	apiKey := m.client.apiKey
	if req.APIKey != nil {
		apiKey = *req.APIKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.TransportError{Err: err}
	}

	var out openAILogprobResponse
	if err := providerutil.ReadJSON(resp, &out); err != nil {
		return nil, err
	}
	return zipLogprobs(&out)
}

// zipLogprobs pairs tokens[i] with token_logprobs[i] from the first
// choice. Extra choices are ignored.
func zipLogprobs(out *openAILogprobResponse) (*provider.LogprobResponse, error) {
	if len(out.Choices) == 0 {
		return nil, &provider.MalformedResponseError{Reason: "no choices"}
	}
	lp := out.Choices[0].Logprobs
	if lp == nil {
		return nil, &provider.MalformedResponseError{Reason: "choice has no logprobs"}
	}
	if lp.Tokens == nil || lp.TokenLogprobs == nil {
		return nil, &provider.MalformedResponseError{Reason: "logprobs missing tokens/token_logprobs"}
	}
	if len(lp.Tokens) != len(lp.TokenLogprobs) {
		return nil, &provider.MalformedResponseError{
			Reason: fmt.Sprintf("tokens/token_logprobs length mismatch (%d != %d)", len(lp.Tokens), len(lp.TokenLogprobs)),
		}
	}

	res := &provider.LogprobResponse{Tokens: make([]provider.TokenLogprob, 0, len(lp.Tokens))}
	for i, tok := range lp.Tokens {
		res.Tokens = append(res.Tokens, provider.TokenLogprob{
			Token:   tok,
			Logprob: lp.TokenLogprobs[i],
		})
	}
	return res, nil
}
