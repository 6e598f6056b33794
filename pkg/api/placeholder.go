package api

import (
	"context"

	"github.com/samvad-hq/deferred-feeds/internal/domain"
	"github.com/samvad-hq/deferred-feeds/pkg/async"
	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
)

const (
	PathPosts  = "/posts"
	PathUsers  = "/users"
	PathPhotos = "/photos"
)

// PlaceholderAPI declares the JSONPlaceholder operations used by the feeds.
type PlaceholderAPI interface {
	GetPosts(ctx context.Context) *async.Deferred[Envelope[[]domain.Post]]
	GetUsers(ctx context.Context) *async.Deferred[Envelope[[]domain.User]]
	GetPhotos(ctx context.Context) *async.Deferred[Envelope[[]domain.Photo]]
}

type placeholderAPI struct {
	client httpclient.Client
}

// NewPlaceholderAPI binds the JSONPlaceholder endpoints to client.
func NewPlaceholderAPI(client httpclient.Client) (PlaceholderAPI, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &placeholderAPI{client: client}, nil
}

func (p *placeholderAPI) GetPosts(ctx context.Context) *async.Deferred[Envelope[[]domain.Post]] {
	return async.Go(ctx, func(ctx context.Context) (Envelope[[]domain.Post], error) {
		return get[[]domain.Post](ctx, p.client, PathPosts)
	})
}

func (p *placeholderAPI) GetUsers(ctx context.Context) *async.Deferred[Envelope[[]domain.User]] {
	return async.Go(ctx, func(ctx context.Context) (Envelope[[]domain.User], error) {
		return get[[]domain.User](ctx, p.client, PathUsers)
	})
}

func (p *placeholderAPI) GetPhotos(ctx context.Context) *async.Deferred[Envelope[[]domain.Photo]] {
	return async.Go(ctx, func(ctx context.Context) (Envelope[[]domain.Photo], error) {
		return get[[]domain.Photo](ctx, p.client, PathPhotos)
	})
}
