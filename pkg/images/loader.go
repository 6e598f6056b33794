// Package images fetches remote images, caches them and writes them to a sink directory.
package images

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic file naming
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
)

// ErrEmptyURL is returned for a blank image URL.
var ErrEmptyURL = errors.New("images: url is empty")

const (
	defaultMaxBytes = 10 << 20
	imageAccept     = "image/*"
)

// StatusError reports a non-2xx image response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("images: %s returned status %d", e.URL, e.StatusCode)
}

// Cache is the subset of storage.Store the loader needs.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

// Loader fetches an image by URL into the configured sink.
type Loader interface {
	Load(ctx context.Context, rawURL string) (Result, error)
}

// Result describes one completed load.
type Result struct {
	URL       string
	Bytes     int
	FromCache bool
	// Path is where the image was written; empty when no sink directory is set.
	Path string
}

// Options configures a FileLoader.
type Options struct {
	OutDir string
	// MaxBytes caps how much of an image body is read.
	MaxBytes  int64
	Timeout   time.Duration
	UserAgent string
}

// FileLoader is a Loader backed by an HTTP client, a byte cache and a directory.
type FileLoader struct {
	client httpclient.Client
	cache  Cache
	opts   Options
}

// New builds a loader with its own HTTP client, which asks for images and
// stops reading a body after opts.MaxBytes. A nil cache disables caching.
func New(cache Cache, opts Options) (*FileLoader, error) {
	opts = normalizeOptions(opts)
	client, err := httpclient.NewClient("", httpclient.Options{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
		Accept:    imageAccept,
		MaxBody:   opts.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("images: build http client: %w", err)
	}
	return NewFileLoader(client, cache, opts)
}

// NewFileLoader builds a loader over an existing client. Body limits are the
// client's concern here.
func NewFileLoader(client httpclient.Client, cache Cache, opts Options) (*FileLoader, error) {
	if client == nil {
		return nil, errors.New("images: http client is nil")
	}
	return &FileLoader{client: client, cache: cache, opts: normalizeOptions(opts)}, nil
}

func normalizeOptions(opts Options) Options {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	opts.OutDir = strings.TrimSpace(opts.OutDir)
	return opts
}

// Load resolves rawURL from the cache or the network, then writes it to the sink.
func (l *FileLoader) Load(ctx context.Context, rawURL string) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}, ErrEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{}, fmt.Errorf("images: invalid url %q", rawURL)
	}

	res := Result{URL: rawURL}
	contentType, data, hit, err := l.fromCache(rawURL)
	if err != nil {
		return res, err
	}
	if hit {
		res.FromCache = true
	} else {
		data, contentType, err = l.fetch(ctx, rawURL)
		if err != nil {
			return res, err
		}
		if l.cache != nil {
			if err := l.cache.Put(rawURL, encodeEntry(contentType, data)); err != nil {
				return res, fmt.Errorf("images: cache put: %w", err)
			}
		}
	}
	res.Bytes = len(data)

	if l.opts.OutDir == "" {
		return res, nil
	}
	res.Path, err = l.write(u, contentType, data)
	return res, err
}

func (l *FileLoader) fromCache(key string) (string, []byte, bool, error) {
	if l.cache == nil {
		return "", nil, false, nil
	}
	raw, ok, err := l.cache.Get(key)
	if err != nil {
		return "", nil, false, fmt.Errorf("images: cache get: %w", err)
	}
	if !ok {
		return "", nil, false, nil
	}
	contentType, data, ok := decodeEntry(raw)
	if !ok {
		// Unreadable entries are refetched and overwritten.
		return "", nil, false, nil
	}
	return contentType, data, true, nil
}

// Cache entries are a 2-byte big-endian content type length, the content
// type, then the image bytes.
func encodeEntry(contentType string, data []byte) []byte {
	if len(contentType) > 0xffff {
		contentType = ""
	}
	buf := make([]byte, 2+len(contentType)+len(data))
	binary.BigEndian.PutUint16(buf, uint16(len(contentType)))
	copy(buf[2:], contentType)
	copy(buf[2+len(contentType):], data)
	return buf
}

func decodeEntry(raw []byte) (string, []byte, bool) {
	if len(raw) < 2 {
		return "", nil, false
	}
	n := int(binary.BigEndian.Uint16(raw))
	if len(raw) < 2+n {
		return "", nil, false
	}
	return string(raw[2 : 2+n]), raw[2+n:], true
}

func (l *FileLoader) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := l.client.Get(ctx, rawURL, nil)
	if errors.Is(err, httpclient.ErrBodyTooLarge) {
		return nil, "", fmt.Errorf("images: %s exceeds %d bytes: %w", rawURL, l.opts.MaxBytes, err)
	}
	if err != nil {
		return nil, "", fmt.Errorf("images: fetch: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode()}
	}
	body := resp.Body()
	ct := ""
	if typed, ok := resp.(interface{ ContentType() string }); ok {
		ct = typed.ContentType()
	}
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return body, ct, nil
}

func (l *FileLoader) write(u *url.URL, contentType string, data []byte) (string, error) {
	if err := os.MkdirAll(l.opts.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("images: create out dir: %w", err)
	}
	sum := sha1.Sum([]byte(u.String()))
	name := hex.EncodeToString(sum[:]) + extension(u, contentType)
	dst := filepath.Join(l.opts.OutDir, name)

	tmp, err := os.CreateTemp(l.opts.OutDir, ".img-*")
	if err != nil {
		return "", fmt.Errorf("images: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: rename: %w", err)
	}
	return dst, nil
}

// extension prefers the URL's own extension, then the served content type.
func extension(u *url.URL, contentType string) string {
	if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
		return strings.ToLower(ext)
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}
	return ".img"
}
