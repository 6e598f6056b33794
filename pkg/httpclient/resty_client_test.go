package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type queryRecorder struct {
	mu      sync.Mutex
	queries []url.Values
}

func (q *queryRecorder) handler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q.mu.Lock()
		q.queries = append(q.queries, r.URL.Query())
		q.mu.Unlock()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (q *queryRecorder) last() url.Values {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queries[len(q.queries)-1]
}

func TestAPIKeyInterceptorAppendsKey(t *testing.T) {
	rec := &queryRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK, `{"results":[]}`))
	defer srv.Close()

	cred := NewCredential("secret-123")
	client, err := NewClient(srv.URL+"/3/", Options{
		Interceptors: []Interceptor{APIKeyInterceptor(DefaultAPIKeyParam, cred)},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Get(context.Background(), "movie/popular", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := rec.last().Get("api_key"); got != "secret-123" {
		t.Fatalf("api_key = %q", got)
	}

	cred.Set("rotated")
	if _, err := client.Get(context.Background(), "movie/popular", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := rec.last().Get("api_key"); got != "rotated" {
		t.Fatalf("expected rotated key, got %q", got)
	}
}

func TestClientWithoutInterceptorSendsNoKey(t *testing.T) {
	rec := &queryRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK, `[]`))
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Get(context.Background(), "/posts", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := rec.last()["api_key"]; ok {
		t.Fatalf("unexpected api_key on un-keyed client")
	}
}

func TestGetDecodesSuccessAndPassesThroughErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message":"nope"}`))
	})
	mux.HandleFunc("/garbled", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(srv.URL, Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var items []struct {
		ID int `json:"id"`
	}
	resp, err := client.Get(context.Background(), "/ok", &items)
	if err != nil {
		t.Fatalf("Get ok: %v", err)
	}
	if !resp.IsSuccess() || len(items) != 2 || items[1].ID != 2 {
		t.Fatalf("unexpected decode: success=%v items=%+v", resp.IsSuccess(), items)
	}

	var ignored []struct{}
	resp, err = client.Get(context.Background(), "/missing", &ignored)
	if err != nil {
		t.Fatalf("non-2xx must not be an error: %v", err)
	}
	if resp.IsSuccess() || resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "nope") {
		t.Fatalf("error body not preserved: %s", resp.Body())
	}

	if _, err := client.Get(context.Background(), "/garbled", &ignored); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewClientRejectsRelativeBaseURL(t *testing.T) {
	if _, err := NewClient("api.example.com/3", Options{}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestRequestLoggingRedactionPolicy(t *testing.T) {
	cases := []struct {
		name       string
		redact     bool
		wantSecret bool
	}{
		{name: "debug", redact: false, wantSecret: true},
		{name: "release", redact: true, wantSecret: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &queryRecorder{}
			srv := httptest.NewServer(rec.handler(http.StatusOK, `{"results":[]}`))
			defer srv.Close()

			core, logs := observer.New(zapcore.DebugLevel)
			client, err := NewClient(srv.URL, Options{
				Interceptors: []Interceptor{APIKeyInterceptor("api_key", NewCredential("topsecret"))},
				Logging: LogPolicy{
					Enabled:       true,
					RedactSecrets: tc.redact,
					SecretParams:  []string{"api_key"},
				},
				Logger: zap.New(core),
			})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			if _, err := client.Get(context.Background(), "/movie/popular", nil); err != nil {
				t.Fatalf("Get: %v", err)
			}

			if got := rec.last().Get("api_key"); got != "topsecret" {
				t.Fatalf("key must always be sent on the wire, got %q", got)
			}

			requests := logs.FilterMessage("http request").All()
			if len(requests) != 1 {
				t.Fatalf("expected 1 request log line, got %d", len(requests))
			}
			for _, entry := range logs.All() {
				logged, _ := entry.ContextMap()["url"].(string)
				if logged == "" {
					continue
				}
				if strings.Contains(logged, "topsecret") != tc.wantSecret {
					t.Fatalf("%s: logged url %q, want secret visible=%v", entry.Message, logged, tc.wantSecret)
				}
			}
		})
	}
}

func TestRequestLoggingTruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := NewClient(srv.URL, Options{
		Logging: LogPolicy{Enabled: true, MaxBody: 10},
		Logger:  zap.New(core),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Get(context.Background(), "/", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	entries := logs.FilterMessage("http response").All()
	if len(entries) != 1 {
		t.Fatalf("expected response log, got %d", len(entries))
	}
	body, _ := entries[0].ContextMap()["body"].(string)
	if body != strings.Repeat("x", 10)+truncatedBodyTrail {
		t.Fatalf("unexpected logged body %q", body)
	}
}

func TestRedactURL(t *testing.T) {
	u, _ := url.Parse("https://api.example.com/3/movie/popular?api_key=abc&page=2")
	got := RedactURL(u, "api_key")
	if strings.Contains(got, "abc") || !strings.Contains(got, "page=2") {
		t.Fatalf("unexpected redaction %q", got)
	}
	if u.RawQuery != "api_key=abc&page=2" {
		t.Fatalf("RedactURL must not mutate its input")
	}
}

func TestScrubErrorMasksTransportURL(t *testing.T) {
	l := newRequestLogger(nil, LogPolicy{RedactSecrets: true, SecretParams: []string{"api_key"}})
	err := l.scrubError(&url.Error{Op: "Get", URL: "http://127.0.0.1:1/x?api_key=leak", Err: context.DeadlineExceeded})
	if strings.Contains(err.Error(), "leak") {
		t.Fatalf("secret leaked into error: %v", err)
	}
}

func TestNewClientAcceptHeader(t *testing.T) {
	accepts := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts <- r.Header.Get("Accept")
	}))
	defer srv.Close()

	for _, tc := range []struct{ accept, want string }{
		{"", "application/json"},
		{"image/*", "image/*"},
	} {
		c, err := NewClient("", Options{Timeout: time.Second, Accept: tc.accept})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got := <-accepts; got != tc.want {
			t.Fatalf("Accept = %q, want %q", got, tc.want)
		}
	}
}

func TestMaxBodyStopsReadingLargeResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64<<10)))
	}))
	defer srv.Close()

	c, err := NewClient("", Options{Timeout: time.Second, MaxBody: 1024})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Get(context.Background(), srv.URL, nil); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}
