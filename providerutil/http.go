package providerutil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ncecere/logprobs/provider"
)

// ReadJSON decodes a JSON response body into v and closes the body.
//
// Only status 200 is treated as success. Any other status returns a
// *provider.StatusError whose Body is the full response body, unparsed.
// A body that cannot be decoded returns a
// *provider.MalformedResponseError. A failure while reading the body
// is a *provider.TransportError.
func ReadJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return &provider.TransportError{Err: err}
		}
		return &provider.StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &provider.TransportError{Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &provider.MalformedResponseError{Reason: "invalid JSON body", Err: err}
	}
	return nil
}

// DefaultHTTPClient returns the default HTTP client used when none is provided.
func DefaultHTTPClient() *http.Client {
	return http.DefaultClient
}
