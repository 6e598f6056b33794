package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	IsSuccess() bool
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
//
// Get issues a GET against path, resolved relative to the client's base URL
// (absolute URLs are used as-is). On a 2xx response the JSON body is decoded
// into result when result is non-nil. Non-2xx statuses are returned as a
// Response, never as an error; errors mean transport or decoding failures.
type Client interface {
	BaseURL() string
	Get(ctx context.Context, path string, result any) (Response, error)
}
