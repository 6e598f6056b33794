package httpclient

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Interceptor observes or modifies an outgoing request before it is built.
type Interceptor = resty.RequestMiddleware

const (
	// DefaultAPIKeyParam is the query parameter TMDB expects the key in.
	DefaultAPIKeyParam = "api_key"

	redactedValue      = "REDACTED"
	defaultMaxBodyLog  = 4096
	truncatedBodyTrail = "...(truncated)"
)

// APIKeyInterceptor appends param=<credential value> to every request of the client it is installed on.
func APIKeyInterceptor(param string, cred *Credential) Interceptor {
	param = strings.TrimSpace(param)
	if param == "" {
		param = DefaultAPIKeyParam
	}
	return func(_ *resty.Client, r *resty.Request) error {
		r.SetQueryParam(param, cred.Value())
		return nil
	}
}

// LogPolicy controls request/response logging for a client.
type LogPolicy struct {
	Enabled bool
	// RedactSecrets masks every query parameter in SecretParams in logged lines.
	// The wire request is never altered.
	RedactSecrets bool
	SecretParams  []string
	// MaxBody caps how many body bytes are logged; <= 0 uses the default.
	MaxBody int
}

// requestLogger logs the final request line, the response body, and transport errors.
type requestLogger struct {
	log    *zap.Logger
	policy LogPolicy
}

func newRequestLogger(log *zap.Logger, policy LogPolicy) *requestLogger {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.MaxBody <= 0 {
		policy.MaxBody = defaultMaxBodyLog
	}
	return &requestLogger{log: log, policy: policy}
}

// install registers the logger on c. It runs after every interceptor so the
// logged URL is exactly what goes on the wire, modulo redaction.
func (l *requestLogger) install(c *resty.Client) {
	c.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
		l.log.Debug("http request",
			zap.String("method", req.Method),
			zap.String("url", l.loggableURL(req.URL)),
		)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		fields := []zap.Field{
			zap.Int("status", resp.StatusCode()),
			zap.Duration("elapsed", resp.Time().Round(time.Millisecond)),
			zap.String("body", l.loggableBody(resp.Body())),
		}
		if raw := rawRequest(resp.Request); raw != nil {
			fields = append(fields, zap.String("url", l.loggableURL(raw.URL)))
		}
		l.log.Debug("http response", fields...)
		return nil
	})
	c.OnError(func(req *resty.Request, err error) {
		fields := []zap.Field{zap.Error(l.scrubError(err))}
		if raw := rawRequest(req); raw != nil {
			fields = append(fields, zap.String("url", l.loggableURL(raw.URL)))
		}
		l.log.Warn("http request failed", fields...)
	})
}

func rawRequest(r *resty.Request) *http.Request {
	if r == nil {
		return nil
	}
	return r.RawRequest
}

func (l *requestLogger) loggableURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if !l.policy.RedactSecrets || len(l.policy.SecretParams) == 0 {
		return u.String()
	}
	return RedactURL(u, l.policy.SecretParams...)
}

func (l *requestLogger) loggableBody(body []byte) string {
	if len(body) > l.policy.MaxBody {
		return string(body[:l.policy.MaxBody]) + truncatedBodyTrail
	}
	return string(body)
}

// scrubError removes raw secret values from transport error strings, which
// embed the full request URL.
func (l *requestLogger) scrubError(err error) error {
	if err == nil || !l.policy.RedactSecrets {
		return err
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, perr := url.Parse(urlErr.URL)
	if perr != nil {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: RedactURL(u, l.policy.SecretParams...), Err: urlErr.Err}
}

// RedactURL returns u with the values of the named query parameters replaced.
func RedactURL(u *url.URL, params ...string) string {
	if u == nil {
		return ""
	}
	cp := *u
	q := cp.Query()
	changed := false
	for _, p := range params {
		if _, ok := q[p]; ok {
			q.Set(p, redactedValue)
			changed = true
		}
	}
	if changed {
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}
