// Package mockapi serves canned JSONPlaceholder and TMDB responses for local runs and tests.
package mockapi

import (
	"bytes"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

const baseToken = "{{base}}"

// Fixtures are the raw bodies served per route. Photo URLs may contain
// "{{base}}", replaced with the serving origin.
type Fixtures struct {
	Posts         []byte
	Users         []byte
	Photos        []byte
	PopularMovies []byte
}

// DefaultFixtures loads the embedded fixtures.
func DefaultFixtures() (Fixtures, error) {
	read := func(name string) ([]byte, error) {
		b, err := fixtureFS.ReadFile("fixtures/" + name)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}
		return b, nil
	}
	var (
		f   Fixtures
		err error
	)
	if f.Posts, err = read("posts.json"); err != nil {
		return Fixtures{}, err
	}
	if f.Users, err = read("users.json"); err != nil {
		return Fixtures{}, err
	}
	if f.Photos, err = read("photos.json"); err != nil {
		return Fixtures{}, err
	}
	if f.PopularMovies, err = read("popular_movies.json"); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// Options configures the mock router.
type Options struct {
	// APIKey is the key the movie route demands. Empty accepts any non-empty key.
	APIKey   string
	Fixtures Fixtures
	// FailWith forces a status for a route path (e.g. "/posts": 503).
	FailWith map[string]int
	// RequestLog enables chi's request logger.
	RequestLog bool
}

type server struct {
	opts Options
}

// NewRouter returns the mock upstream handler.
func NewRouter(opts Options) chi.Router {
	s := &server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
	})
	r.Get("/posts", s.fixture(func(f Fixtures) []byte { return f.Posts }))
	r.Get("/users", s.fixture(func(f Fixtures) []byte { return f.Users }))
	r.Get("/photos", s.fixture(func(f Fixtures) []byte { return f.Photos }))
	r.Route("/3", func(r chi.Router) {
		r.With(s.requireAPIKey).Get("/movie/popular", s.fixture(func(f Fixtures) []byte { return f.PopularMovies }))
	})
	r.Get("/images/{size}/{name}", s.handleImage)
	return r
}

func (s *server) fixture(pick func(Fixtures) []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, ok := s.opts.FailWith[r.URL.Path]; ok {
			writeJSON(w, status, []byte(fmt.Sprintf(`{"error":%q}`, http.StatusText(status))))
			return
		}
		body := pick(s.opts.Fixtures)
		if body == nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, bytes.ReplaceAll(body, []byte(baseToken), []byte(origin(r))))
	}
}

// requireAPIKey answers like TMDB does when the key is missing or wrong.
func (s *server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		if key == "" || (s.opts.APIKey != "" && key != s.opts.APIKey) {
			body, _ := json.Marshal(map[string]any{
				"status_code":    7,
				"status_message": "Invalid API key: You must be granted a valid key.",
				"success":        false,
			})
			writeJSON(w, http.StatusUnauthorized, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleImage renders a 1x1 PNG whose colour is taken from the file name (e.g. 92c952.png).
func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.opts.FailWith["/images"]; ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	name := strings.TrimSuffix(chi.URLParam(r, "name"), ".png")
	rgb, err := hex.DecodeString(name)
	if err != nil || len(rgb) != 3 {
		http.Error(w, "bad colour", http.StatusBadRequest)
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
