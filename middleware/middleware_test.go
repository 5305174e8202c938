package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ncecere/logprobs/provider"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

type fakeModel struct {
	res   *provider.LogprobResponse
	err   error
	calls int
}

func (f *fakeModel) Score(ctx context.Context, req *provider.LogprobRequest) (*provider.LogprobResponse, error) {
	f.calls++
	return f.res, f.err
}

func TestLoggingLogprobModel_DoesNotLogSecrets(t *testing.T) {
	logger := &recordingLogger{}
	base := &fakeModel{res: &provider.LogprobResponse{Tokens: []provider.TokenLogprob{{Token: "a"}, {Token: "b"}}}}

	key := "sk-secret"
	model := WrapLogprobModel(base, LoggingLogprobModel(LoggingOptions{
		Logger:      logger,
		LogRequest:  true,
		LogResponse: true,
		LogDuration: true,
	}))

	res, err := model.Score(context.Background(), &provider.LogprobRequest{Model: "davinci", Prompt: "top secret prompt", APIKey: &key})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(res.Tokens) != 2 {
		t.Fatalf("unexpected response: %+v", res)
	}
	if len(logger.lines) != 2 {
		t.Fatalf("expected 2 log lines, got %v", logger.lines)
	}
	if !strings.Contains(logger.lines[0], "model=davinci") || !strings.Contains(logger.lines[0], "prompt_len=17") {
		t.Fatalf("unexpected start line: %q", logger.lines[0])
	}
	if !strings.Contains(logger.lines[1], "tokens=2") {
		t.Fatalf("unexpected success line: %q", logger.lines[1])
	}
	for _, l := range logger.lines {
		if strings.Contains(l, key) || strings.Contains(l, "top secret") {
			t.Fatalf("log line leaks request data: %q", l)
		}
	}
}

func TestLoggingLogprobModel_LogsErrorsOnce(t *testing.T) {
	logger := &recordingLogger{}
	base := &fakeModel{err: &provider.StatusError{StatusCode: 401, Body: "invalid api key"}}

	model := LoggingLogprobModel(LoggingOptions{Logger: logger, LogErrors: true})(base)
	_, err := model.Score(context.Background(), &provider.LogprobRequest{Model: "m"})

	var se *provider.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected error to pass through, got %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", base.calls)
	}
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "logprobs.score error") {
		t.Fatalf("unexpected log lines: %v", logger.lines)
	}
}

func TestTelemetryLogprobModel_InvokesHook(t *testing.T) {
	base := &fakeModel{res: &provider.LogprobResponse{Tokens: []provider.TokenLogprob{{Token: "x"}}}}

	var infos []ScoreCallInfo
	model := WrapLogprobModel(base, TelemetryLogprobModel(TelemetryHooks{
		OnScore: func(ctx context.Context, info ScoreCallInfo) {
			infos = append(infos, info)
		},
	}))

	if _, err := model.Score(context.Background(), &provider.LogprobRequest{Model: "m"}); err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one hook call, got %d", len(infos))
	}
	if infos[0].Model != "m" || infos[0].Tokens != 1 || infos[0].Err != nil {
		t.Fatalf("unexpected info: %+v", infos[0])
	}
	if infos[0].EndTime.Before(infos[0].StartTime) {
		t.Fatalf("end time before start time: %+v", infos[0])
	}
}

func TestWrapLogprobModel_Order(t *testing.T) {
	var order []string
	mk := func(name string) LogprobModelMiddleware {
		return TelemetryLogprobModel(TelemetryHooks{
			OnScore: func(ctx context.Context, info ScoreCallInfo) { order = append(order, name) },
		})
	}

	model := WrapLogprobModel(&fakeModel{res: &provider.LogprobResponse{}}, mk("outer"), mk("inner"))
	if _, err := model.Score(context.Background(), &provider.LogprobRequest{}); err != nil {
		t.Fatalf("Score error: %v", err)
	}
	// Hooks fire after the call returns, so the innermost fires first.
	if len(order) != 2 || order[0] != "inner" || order[1] != "outer" {
		t.Fatalf("unexpected order: %v", order)
	}
}
