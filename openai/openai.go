package openai

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ncecere/logprobs/provider"
	"github.com/ncecere/logprobs/providerutil"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "text-davinci-003"
)

// Client is an OpenAI provider client for the legacy /v1/completions
// endpoint.
//
// It can be configured explicitly via ClientOptions or implicitly via
// environment variables. See NewClient and CompatibleClient for
// configuration details.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient provider.HTTPClient
	headers    http.Header
}

func (c *Client) completionsURL() string {
	if strings.HasSuffix(c.baseURL, "/v1") {
		return c.baseURL + "/completions"
	}
	return c.baseURL + "/v1/completions"
}

// NewClient creates a new OpenAI client.
//
// Environment variables:
//   - OPENAI_API_KEY (used if opts.APIKey is empty)
//   - OPENAI_BASE_URL (optional, defaults to https://api.openai.com)
//
// A missing API key is not an error: the key can be supplied per call
// and the server decides whether a credential is acceptable.
func NewClient(opts provider.ClientOptions) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("openai: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("openai: invalid base URL %q: scheme and host are required", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = providerutil.DefaultHTTPClient()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: hc,
		headers:    opts.Headers,
	}, nil
}

// CompatibleClient returns a new Client configured for an OpenAI-compatible endpoint.
//
// It reads from environment variables by default:
//   - OPENAI_COMPATIBLE_API_KEY (fallback to OPENAI_API_KEY)
//   - OPENAI_COMPATIBLE_BASE_URL (required)
//
// The endpoint must implement /v1/completions with echo and logprobs.
func CompatibleClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_COMPATIBLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := os.Getenv("OPENAI_COMPATIBLE_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("openai: missing OPENAI_COMPATIBLE_BASE_URL for compatible client")
	}

	return NewClient(provider.ClientOptions{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}

// WithHTTPTimeout is a helper to wrap the default HTTP client with a timeout.
func WithHTTPTimeout(d time.Duration) provider.HTTPClient {
	return &http.Client{Timeout: d}
}
