package logprobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ncecere/logprobs/openai"
	"github.com/ncecere/logprobs/provider"
	"github.com/ncecere/logprobs/registry"
)

func float64Ptr(v float64) *float64 { return &v }

func newTestModel(t *testing.T, ts *httptest.Server) LogprobModel {
	t.Helper()
	client, err := openai.NewClient(provider.ClientOptions{
		BaseURL:    ts.URL + "/v1",
		HTTPClient: ts.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client.LogprobModel("test-model")
}

func TestRequestCompletionWithModel_SingleToken(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices":[{"logprobs":{"tokens":["Hello"],"token_logprobs":[null]}}]}`)
	}))
	defer ts.Close()

	res := RequestCompletionWithModel(context.Background(), newTestModel(t, ts), "sk-test", "Hello")
	if !res.OK() {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if len(res.Tokens) != 1 || res.Tokens[0].Token != "Hello" || res.Tokens[0].Logprob != nil {
		t.Fatalf("unexpected tokens: %+v", res.Tokens)
	}
}

func TestRequestCompletionWithModel_ZipsTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"logprobs":{"tokens":["The"," cat"," sat","."],"token_logprobs":[null,-3.25,-0.5,-1]}}]}`)
	}))
	defer ts.Close()

	res := RequestCompletionWithModel(context.Background(), newTestModel(t, ts), "k", "The cat sat")
	if res.Kind != KindOK {
		t.Fatalf("expected KindOK, got %+v", res)
	}

	want := []TokenProbability{
		{Token: "The"},
		{Token: " cat", Logprob: float64Ptr(-3.25)},
		{Token: " sat", Logprob: float64Ptr(-0.5)},
		{Token: ".", Logprob: float64Ptr(-1)},
	}
	if len(res.Tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(res.Tokens))
	}
	for i, w := range want {
		got := res.Tokens[i]
		if got.Token != w.Token {
			t.Fatalf("token %d: expected %q, got %q", i, w.Token, got.Token)
		}
		if (got.Logprob == nil) != (w.Logprob == nil) {
			t.Fatalf("token %d: logprob presence mismatch", i)
		}
		if w.Logprob != nil && *got.Logprob != *w.Logprob {
			t.Fatalf("token %d: expected %v, got %v", i, *w.Logprob, *got.Logprob)
		}
	}
}

func TestRequestCompletionWithModel_ServerErrorIsRawBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "invalid api key")
	}))
	defer ts.Close()

	res := RequestCompletionWithModel(context.Background(), newTestModel(t, ts), "bad", "Hello")
	if res.Kind != KindErr {
		t.Fatalf("expected KindErr, got %+v", res)
	}
	if res.Error != "invalid api key" {
		t.Fatalf("expected raw body, got %q", res.Error)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", res.StatusCode)
	}
	if res.Tokens != nil {
		t.Fatalf("tokens must be empty on error: %+v", res.Tokens)
	}
}

type authRecorder struct {
	next provider.HTTPClient
	auth []string
}

func (a *authRecorder) Do(req *http.Request) (*http.Response, error) {
	a.auth = append(a.auth, req.Header.Get("Authorization"))
	return a.next.Do(req)
}

func TestRequestCompletionWithModel_EmptyCredentialIsSent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"logprobs":{"tokens":[],"token_logprobs":[]}}]}`)
	}))
	defer ts.Close()

	rec := &authRecorder{next: ts.Client()}
	client, err := openai.NewClient(provider.ClientOptions{
		BaseURL:    ts.URL + "/v1",
		HTTPClient: rec,
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	res := RequestCompletionWithModel(context.Background(), client.LogprobModel("test-model"), "", "x")
	if !res.OK() {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if len(rec.auth) != 1 || rec.auth[0] != "Bearer " {
		t.Fatalf("unexpected auth header: %q", rec.auth)
	}
}

func TestRequestCompletionWithModel_NoCaching(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"choices":[{"logprobs":{"tokens":["call%d"],"token_logprobs":[null]}}]}`, calls)
	}))
	defer ts.Close()

	model := newTestModel(t, ts)
	first := RequestCompletionWithModel(context.Background(), model, "k", "same")
	second := RequestCompletionWithModel(context.Background(), model, "k", "same")

	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
	if first.Tokens[0].Token != "call1" || second.Tokens[0].Token != "call2" {
		t.Fatalf("expected independent results, got %+v and %+v", first.Tokens, second.Tokens)
	}
}

func TestRequestCompletionWithModel_Malformed(t *testing.T) {
	cases := []string{
		`{"choices":[]}`,
		`{"choices":[{}]}`,
		`{"choices":[{"logprobs":{"tokens":["a"],"token_logprobs":[null,-1]}}]}`,
		`<html>`,
		`{"choices":[{"logprobs":{}}]}`,
		`{"choices":[{"logprobs":{"tokens":null,"token_logprobs":null}}]}`,
		`{"choices":[{"logprobs":{"text_offset":[0]}}]}`,
	}
	for _, body := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		res := RequestCompletionWithModel(context.Background(), newTestModel(t, ts), "k", "p")
		ts.Close()

		if res.Kind != KindMalformed {
			t.Fatalf("body %q: expected KindMalformed, got %+v", body, res)
		}
		if res.Error == "" || res.Err == nil {
			t.Fatalf("body %q: expected error details, got %+v", body, res)
		}
	}
}

func TestRequestCompletionWithModel_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := RequestCompletionWithModel(ctx, newTestModel(t, ts), "k", "p")
	if res.Kind != KindTransport {
		t.Fatalf("expected KindTransport, got %+v", res)
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", res.Err)
	}
}

func TestRequestCompletion_CanceledContextIsTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := RequestCompletion(ctx, "sk-test", "Hello")
	if res.Kind != KindTransport {
		t.Fatalf("expected KindTransport, got %+v", res)
	}
}

func TestRequestCompletionWithModel_NilModel(t *testing.T) {
	res := RequestCompletionWithModel(context.Background(), nil, "k", "p")
	if res.Kind != KindInvalid || !errors.Is(res.Err, ErrMissingModel) {
		t.Fatalf("expected KindInvalid with ErrMissingModel, got %+v", res)
	}
}

func TestScoreWithRegistry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"logprobs":{"tokens":["a","b"],"token_logprobs":[null,-2]}}]}`)
	}))
	defer ts.Close()

	reg := registry.NewInMemoryRegistry()
	reg.RegisterLogprobModel("default", newTestModel(t, ts))

	res, err := ScoreWithRegistry(context.Background(), reg, "default", ScoreRequest{Prompt: "ab"})
	if err != nil {
		t.Fatalf("ScoreWithRegistry error: %v", err)
	}
	if len(res.Tokens) != 2 {
		t.Fatalf("unexpected tokens: %+v", res.Tokens)
	}

	_, err = ScoreWithRegistry(context.Background(), reg, "missing", ScoreRequest{Prompt: "ab"})
	var nsm *registry.NoSuchModelError
	if !errors.As(err, &nsm) {
		t.Fatalf("expected NoSuchModelError, got %v", err)
	}
	if Classify(err) != KindInvalid {
		t.Fatalf("unexpected classification: %s", Classify(err))
	}

	_, err = ScoreWithRegistry(context.Background(), nil, "default", ScoreRequest{})
	var iae *InvalidArgumentError
	if !errors.As(err, &iae) || iae.Parameter != "reg" {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ResultKind
	}{
		{nil, KindOK},
		{&provider.StatusError{StatusCode: 500, Body: "x"}, KindErr},
		{fmt.Errorf("wrapped: %w", &provider.StatusError{StatusCode: 429}), KindErr},
		{&provider.MalformedResponseError{Reason: "no choices"}, KindMalformed},
		{&provider.TransportError{Err: errors.New("dial tcp: refused")}, KindTransport},
		{context.DeadlineExceeded, KindTransport},
		{ErrMissingModel, KindInvalid},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v): expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestSummarize(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	if s := Summarize([]TokenProbability{{Token: "only"}}); s != (Summary{}) {
		t.Fatalf("expected zero summary for unscored tokens, got %+v", s)
	}

	s := Summarize([]TokenProbability{
		{Token: "a"},
		{Token: "b", Logprob: float64Ptr(-1)},
		{Token: "c", Logprob: float64Ptr(-3)},
	})
	if s.Scored != 2 || s.TotalLogprob != -4 || s.MeanLogprob != -2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.Perplexity-math.Exp(2)) > 1e-12 {
		t.Fatalf("unexpected perplexity: %v", s.Perplexity)
	}
}
