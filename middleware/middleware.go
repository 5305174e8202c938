package middleware

import (
	"context"
	"log"
	"time"

	"github.com/ncecere/logprobs/provider"
)

// Logger is the minimal logging interface used by the middleware package.
// It matches the Printf method on *log.Logger so callers can pass
// log.Default() or a custom logger implementation.
type Logger interface {
	Printf(format string, v ...any)
}

// LogprobModelMiddleware wraps a provider.LogprobModel with additional
// behavior such as logging or telemetry.
type LogprobModelMiddleware func(provider.LogprobModel) provider.LogprobModel

// WrapLogprobModel applies the provided middlewares around the base
// model. Middlewares are applied in the order provided, so the first
// middleware becomes the outermost wrapper.
func WrapLogprobModel(base provider.LogprobModel, mws ...LogprobModelMiddleware) provider.LogprobModel {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// LoggingOptions controls which aspects of a scoring call are logged
// by the logging middleware.
type LoggingOptions struct {
	// Logger is the destination for log output. If nil, log.Default() is used.
	Logger Logger
	// LogRequest controls whether request metadata (model name, prompt length) is logged.
	LogRequest bool
	// LogResponse controls whether successful responses are logged.
	LogResponse bool
	// LogErrors controls whether errors are logged.
	LogErrors bool
	// LogDuration controls whether call duration is logged.
	LogDuration bool
}

func defaultLoggingOptions(opts LoggingOptions) LoggingOptions {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if !opts.LogRequest && !opts.LogResponse && !opts.LogErrors && !opts.LogDuration {
		opts.LogRequest = true
		opts.LogErrors = true
		opts.LogDuration = true
	}
	return opts
}

// LoggingLogprobModel returns a LogprobModelMiddleware that logs Score
// calls using the provided options. Credentials and prompt text are
// never logged; only the model name, prompt length, token count,
// duration and error state.
func LoggingLogprobModel(opts LoggingOptions) LogprobModelMiddleware {
	opts = defaultLoggingOptions(opts)

	return func(next provider.LogprobModel) provider.LogprobModel {
		return &loggingLogprobModel{
			next:  next,
			opts:  opts,
			logFn: opts.Logger.Printf,
		}
	}
}

type loggingLogprobModel struct {
	next  provider.LogprobModel
	opts  LoggingOptions
	logFn func(format string, v ...any)
}

func (l *loggingLogprobModel) Score(ctx context.Context, req *provider.LogprobRequest) (*provider.LogprobResponse, error) {
	start := time.Now()
	if l.opts.LogRequest {
		l.logFn("logprobs.score start model=%s prompt_len=%d", req.Model, len(req.Prompt))
	}

	res, err := l.next.Score(ctx, req)
	dur := time.Since(start)

	if err != nil {
		if l.opts.LogErrors {
			if l.opts.LogDuration {
				l.logFn("logprobs.score error model=%s duration=%s err=%v", req.Model, dur, err)
			} else {
				l.logFn("logprobs.score error model=%s err=%v", req.Model, err)
			}
		}
		return nil, err
	}

	if l.opts.LogResponse {
		if l.opts.LogDuration {
			l.logFn("logprobs.score success model=%s tokens=%d duration=%s", req.Model, len(res.Tokens), dur)
		} else {
			l.logFn("logprobs.score success model=%s tokens=%d", req.Model, len(res.Tokens))
		}
	} else if l.opts.LogDuration {
		l.logFn("logprobs.score done model=%s duration=%s", req.Model, dur)
	}

	return res, nil
}

// ScoreCallInfo contains high-level metadata about a scoring call that
// can be used for metrics or tracing.
type ScoreCallInfo struct {
	Model     string
	Tokens    int
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

// TelemetryHooks defines callbacks that are invoked around scoring
// calls. Callers can bridge these into metrics or tracing systems.
type TelemetryHooks struct {
	OnScore func(ctx context.Context, info ScoreCallInfo)
}

// TelemetryLogprobModel returns a LogprobModelMiddleware that invokes
// the provided telemetry hooks around Score calls.
func TelemetryLogprobModel(hooks TelemetryHooks) LogprobModelMiddleware {
	return func(next provider.LogprobModel) provider.LogprobModel {
		return &telemetryLogprobModel{
			next:  next,
			hooks: hooks,
		}
	}
}

type telemetryLogprobModel struct {
	next  provider.LogprobModel
	hooks TelemetryHooks
}

func (t *telemetryLogprobModel) Score(ctx context.Context, req *provider.LogprobRequest) (*provider.LogprobResponse, error) {
	start := time.Now()
	res, err := t.next.Score(ctx, req)
	if t.hooks.OnScore != nil {
		info := ScoreCallInfo{
			Model:     req.Model,
			StartTime: start,
			EndTime:   time.Now(),
			Err:       err,
		}
		if res != nil {
			info.Tokens = len(res.Tokens)
		}
		t.hooks.OnScore(ctx, info)
	}
	return res, err
}
