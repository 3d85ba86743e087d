package llm

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrNoContent means the provider answered successfully but the first
// choice carried no text. It is a definitive response-shape failure and
// is never retried.
var ErrNoContent = errors.New("no response content from API")

// ErrInvalidRequest means the conversation turn could not be built.
// Like ErrNoContent it fails the call without retrying.
var ErrInvalidRequest = errors.New("invalid completion request")

// APIError wraps a transport or protocol failure from the chat endpoint.
type APIError struct {
	// StatusCode is the HTTP status returned by the provider, or 0 when
	// the request never got a response.
	StatusCode int
	// Detail is the provider's error message, when it sent one.
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("LLM API error (status %d): %s", e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("LLM API error (status %d): %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("LLM API error: %v", e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError classifies an error returned by the go-openai client.
func newAPIError(err error) *APIError {
	out := &APIError{Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.StatusCode = apiErr.HTTPStatusCode
		out.Detail = apiErr.Message
	case errors.As(err, &reqErr):
		out.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			out.Detail = reqErr.Err.Error()
		}
	}
	return out
}
