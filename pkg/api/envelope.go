package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/deferred-feeds/internal/domain"
	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
)

// ErrNilClient is returned when an endpoint set is built without a transport.
var ErrNilClient = errors.New("api: http client is nil")

// Envelope wraps one decoded HTTP response.
type Envelope[T any] struct {
	StatusCode int
	// Body is set only for 2xx responses.
	Body T
	// ErrorBody holds the raw body of a non-2xx response.
	ErrorBody []byte
}

// IsSuccessful reports a 2xx status.
func (e Envelope[T]) IsSuccessful() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// ErrorBodyString returns the raw error body as text.
func (e Envelope[T]) ErrorBodyString() string {
	return string(e.ErrorBody)
}

// get issues one GET and wraps the result. Transport, decoding and validation
// failures are errors; non-2xx statuses are carried in the envelope.
func get[T any](ctx context.Context, client httpclient.Client, path string) (Envelope[T], error) {
	var out T
	resp, err := client.Get(ctx, path, &out)
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("get %s: %w", path, err)
	}

	env := Envelope[T]{StatusCode: resp.StatusCode()}
	if !resp.IsSuccess() {
		env.ErrorBody = append([]byte(nil), resp.Body()...)
		return env, nil
	}

	if err := domain.Validate(&out); err != nil {
		return Envelope[T]{}, fmt.Errorf("get %s: %w", path, err)
	}
	env.Body = out
	return env, nil
}
