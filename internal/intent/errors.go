package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const noRawResponse = "No response"

// Error is an intent service failure. Status is the HTTP status the relay
// should answer with and Detail the message shown to the caller.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string { return e.Detail }
func (e *Error) Unwrap() error { return e.Err }

// upstreamError maps a failed chat completion call. The upstream status is
// kept when the API answered at all, otherwise 500.
func upstreamError(err error) *Error {
	status := http.StatusInternalServerError
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0:
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0:
		status = reqErr.HTTPStatusCode
	}
	return &Error{
		Status: status,
		Detail: fmt.Sprintf("Groq API error: %v", err),
		Err:    err,
	}
}

func parseError(err error, raw string) *Error {
	if raw == "" {
		raw = noRawResponse
	}
	return &Error{
		Status: http.StatusInternalServerError,
		Detail: fmt.Sprintf("Error parsing Groq response: %v, Raw Response: %s", err, raw),
		Err:    err,
	}
}

func formatError() *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Detail: "Unexpected Groq API response format.",
	}
}

func unexpectedError(err error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Detail: fmt.Sprintf("An error occurred: %v", err),
		Err:    err,
	}
}

// isTransportError reports failures where the API produced no usable answer:
// deadline, cancellation, connection errors and non-2xx statuses.
func isTransportError(err error) bool {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &apiErr) ||
		errors.As(err, &reqErr) ||
		isNetError(err)
}
