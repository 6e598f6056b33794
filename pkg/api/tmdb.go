package api

import (
	"context"

	"github.com/samvad-hq/deferred-feeds/internal/domain"
	"github.com/samvad-hq/deferred-feeds/pkg/async"
	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
)

// PathPopularMovies is relative so it resolves under the versioned base URL (".../3/").
const PathPopularMovies = "movie/popular"

// TMDBAPI declares the movie-database operations used by the feeds.
type TMDBAPI interface {
	GetPopularMovies(ctx context.Context) *async.Deferred[Envelope[domain.MovieResponse]]
}

type tmdbAPI struct {
	client httpclient.Client
}

// NewTMDBAPI binds the TMDB endpoints to client. The client is expected to
// carry the API-key interceptor.
func NewTMDBAPI(client httpclient.Client) (TMDBAPI, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &tmdbAPI{client: client}, nil
}

func (t *tmdbAPI) GetPopularMovies(ctx context.Context) *async.Deferred[Envelope[domain.MovieResponse]] {
	return async.Go(ctx, func(ctx context.Context) (Envelope[domain.MovieResponse], error) {
		return get[domain.MovieResponse](ctx, t.client, PathPopularMovies)
	})
}
