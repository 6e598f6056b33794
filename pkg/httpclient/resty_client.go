package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	defaultAccept  = "application/json"
)

// ErrBodyTooLarge is returned when a response body exceeds Options.MaxBody.
var ErrBodyTooLarge = resty.ErrResponseBodyTooLarge

// Options configures a client built by NewClient.
type Options struct {
	Timeout time.Duration
	// Interceptors run in order on every request, before logging observes it.
	Interceptors []Interceptor
	Logging      LogPolicy
	Logger       *zap.Logger
	UserAgent    string
	// Accept is the Accept header sent on every request; empty means JSON.
	Accept string
	// MaxBody stops reading a response body after this many bytes and fails
	// the request with ErrBodyTooLarge. Zero means unlimited.
	MaxBody int64
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	baseURL string
}

// NewClient builds a client bound to baseURL. An empty baseURL yields a client
// that only accepts absolute URLs.
func NewClient(baseURL string, opts Options) (*RestyClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("base url %q must be absolute", baseURL)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := newRestyBaseClient(timeout)
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	accept := strings.TrimSpace(opts.Accept)
	if accept == "" {
		accept = defaultAccept
	}
	c.SetHeader("Accept", accept)
	if opts.MaxBody > 0 {
		c.SetResponseBodyLimit(int(opts.MaxBody))
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	for _, ic := range opts.Interceptors {
		if ic != nil {
			c.OnBeforeRequest(ic)
		}
	}
	if opts.Logging.Enabled {
		newRequestLogger(opts.Logger, opts.Logging).install(c)
	}

	return &RestyClient{client: c, baseURL: baseURL}, nil
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// BaseURL returns the base URL requests are resolved against.
func (r *RestyClient) BaseURL() string { return r.baseURL }

// Get performs an HTTP GET request, decoding a 2xx JSON body into result when non-nil.
func (r *RestyClient) Get(ctx context.Context, path string, result any) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponseAdapter) IsSuccess() bool { return r.resp.IsSuccess() }

// ContentType returns the response Content-Type header.
func (r *restyResponseAdapter) ContentType() string { return r.resp.Header().Get("Content-Type") }
