// Package server exposes prompt scoring over HTTP using Fiber.
package server

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/ncecere/logprobs"
	"github.com/ncecere/logprobs/registry"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const requestIDLocal = "requestid"

// Options configures a Server.
type Options struct {
	// Registry resolves model names. Required.
	Registry registry.Registry
	// DefaultModel is used when a request names no model.
	DefaultModel string
	// Timeout bounds each upstream call. Zero means no extra bound
	// beyond the HTTP client's own.
	Timeout time.Duration
	// AccessLog receives one line per request. Defaults to os.Stderr.
	AccessLog io.Writer
}

// Server serves the scoring API.
type Server struct {
	app  *fiber.App
	opts Options
}

type scoreRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type tokenJSON struct {
	Token   string   `json:"token"`
	Logprob *float64 `json:"logprob"`
}

type okResponse struct {
	Kind    logprobs.ResultKind `json:"kind"`
	Model   string              `json:"model"`
	Tokens  []tokenJSON         `json:"tokens"`
	Summary logprobs.Summary    `json:"summary"`
}

type errorResponse struct {
	Kind           logprobs.ResultKind `json:"kind"`
	Error          string              `json:"error"`
	UpstreamStatus int                 `json:"upstream_status,omitempty"`
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stderr
	}

	app := fiber.New(fiber.Config{
		AppName:               "logprobs",
		DisableStartupMessage: true,
	})
	s := &Server{app: app, opts: opts}

	app.Use(recover.New())
	app.Use(requestID)
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:" + requestIDLocal + "} ${status} ${method} ${path} ${latency}\n",
		Output: opts.AccessLog,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/v1/models", s.handleModels)
	app.Post("/v1/logprobs", s.handleScore)

	return s
}

// App returns the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.app.ShutdownWithContext(ctx) }

func requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals(requestIDLocal, id)
	return c.Next()
}

func (s *Server) handleModels(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"default": s.opts.DefaultModel,
		"models":  s.opts.Registry.Names(),
	})
}

func (s *Server) handleScore(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Kind:  logprobs.KindInvalid,
			Error: "invalid request body: " + err.Error(),
		})
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.opts.DefaultModel
	}

	ctx := c.UserContext()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err := logprobs.ScoreWithRegistry(ctx, s.opts.Registry, modelName, logprobs.ScoreRequest{
		Prompt: req.Prompt,
		APIKey: bearerToken(c.Get(fiber.HeaderAuthorization)),
	})
	if err != nil {
		var nsm *registry.NoSuchModelError
		if errors.As(err, &nsm) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{
				Kind:  logprobs.KindInvalid,
				Error: err.Error(),
			})
		}
		result := logprobs.NewResult(res, err)
		return c.Status(statusFor(result.Kind)).JSON(errorResponse{
			Kind:           result.Kind,
			Error:          result.Error,
			UpstreamStatus: result.StatusCode,
		})
	}

	tokens := make([]tokenJSON, 0, len(res.Tokens))
	for _, t := range res.Tokens {
		tokens = append(tokens, tokenJSON{Token: t.Token, Logprob: t.Logprob})
	}
	return c.JSON(okResponse{
		Kind:    logprobs.KindOK,
		Model:   modelName,
		Tokens:  tokens,
		Summary: logprobs.Summarize(res.Tokens),
	})
}

// bearerToken returns the credential from an Authorization header, or
// nil when the caller sent none so the model's configured key applies.
func bearerToken(header string) *string {
	scheme, tok, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return nil
	}
	return &tok
}

func statusFor(kind logprobs.ResultKind) int {
	switch kind {
	case logprobs.KindErr, logprobs.KindMalformed:
		return fiber.StatusBadGateway
	case logprobs.KindTransport:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadRequest
	}
}
