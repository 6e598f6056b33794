package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.Fixtures.Posts == nil {
		f, err := DefaultFixtures()
		if err != nil {
			t.Fatalf("DefaultFixtures: %v", err)
		}
		opts.Fixtures = f
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv
}

func TestPhotosFixtureUsesServingOrigin(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/photos")
	if err != nil {
		t.Fatalf("get photos: %v", err)
	}
	defer resp.Body.Close()

	var photos []struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}
	if !strings.HasPrefix(photos[2].URL, srv.URL+"/images/") {
		t.Fatalf("photo url not rewritten: %s", photos[2].URL)
	}

	img, err := http.Get(photos[2].URL)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	defer img.Body.Close()
	if img.StatusCode != http.StatusOK || img.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected image response %d %s", img.StatusCode, img.Header.Get("Content-Type"))
	}
}

func TestMovieRouteRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t, Options{APIKey: "k1"})

	for key, want := range map[string]int{"": http.StatusUnauthorized, "wrong": http.StatusUnauthorized, "k1": http.StatusOK} {
		resp, err := http.Get(srv.URL + "/3/movie/popular?api_key=" + key)
		if err != nil {
			t.Fatalf("get movies: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("key %q: status %d, want %d (%s)", key, resp.StatusCode, want, body)
		}
	}
}

func TestFailWithOverridesRoute(t *testing.T) {
	srv := newTestServer(t, Options{FailWith: map[string]int{"/users": http.StatusServiceUnavailable}})

	resp, err := http.Get(srv.URL + "/users")
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
