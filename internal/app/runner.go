package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/samvad-hq/deferred-feeds/internal/config"
	"github.com/samvad-hq/deferred-feeds/internal/domain"
	"github.com/samvad-hq/deferred-feeds/internal/logger"
	"github.com/samvad-hq/deferred-feeds/pkg/api"
	"github.com/samvad-hq/deferred-feeds/pkg/async"
	"github.com/samvad-hq/deferred-feeds/pkg/images"
	"github.com/samvad-hq/deferred-feeds/pkg/publishers"
)

const publishTimeout = 10 * time.Second

// Deps are the collaborators a Runner drives. Clients is required; the rest
// are optional.
type Deps struct {
	Clients *api.Clients
	// Loader receives the last photo URL of a successful photos flow.
	Loader images.Loader
	Fanout *publishers.Fanout
	// Closers are released when Run returns (image cache, publishers).
	Closers []io.Closer
	Flows   []string
	// Interval repeats runs on a ticker; zero means run once.
	Interval time.Duration
	Log      logger.Logger
}

// Runner issues every configured flow concurrently and records how each one ends.
type Runner struct {
	clients  *api.Clients
	loader   images.Loader
	fanout   *publishers.Fanout
	closers  []io.Closer
	flows    []string
	interval time.Duration
	log      logger.Logger
}

// NewRunner validates deps and builds a Runner.
func NewRunner(deps Deps) (*Runner, error) {
	if deps.Clients == nil {
		return nil, errors.New("runner requires api clients")
	}
	if deps.Interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", deps.Interval)
	}
	flows := deps.Flows
	if len(flows) == 0 {
		flows = []string{config.FlowPosts, config.FlowUsers, config.FlowPhotos, config.FlowPopularMovies}
	}
	for _, f := range flows {
		switch f {
		case config.FlowPosts, config.FlowUsers, config.FlowPhotos, config.FlowPopularMovies:
		default:
			return nil, fmt.Errorf("unknown flow %q", f)
		}
	}
	log := deps.Log
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Runner{
		clients:  deps.Clients,
		loader:   deps.Loader,
		fanout:   deps.Fanout,
		closers:  deps.Closers,
		flows:    append([]string(nil), flows...),
		interval: deps.Interval,
		log:      log,
	}, nil
}

// Run performs one run immediately and, with a positive interval, keeps
// running on a ticker until ctx is cancelled. Owned resources are closed on return.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.clients == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	r.log.InfoObj("runner starting", "runner_state", map[string]any{
		"flows":            r.flows,
		"publishers_count": r.fanout.Size(),
		"interval":         r.interval.String(),
	})

	r.RunOnce(ctx)
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce issues every flow at once and waits for all of them. A flow's
// failure is logged and recorded in its Outcome; it never affects other flows.
func (r *Runner) RunOnce(ctx context.Context) Report {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, len(r.flows)),
	}
	r.log.InfoObj("run started", "run_meta", map[string]any{
		"run_id": report.RunID,
		"flows":  r.flows,
	})

	var wg conc.WaitGroup
	for i, flow := range r.flows {
		wg.Go(func() {
			out := r.containFlow(ctx, flow)
			r.publish(ctx, report.RunID, out)
			report.Outcomes[i] = out
		})
	}
	wg.Wait()

	report.Elapsed = time.Since(report.StartedAt)
	r.log.InfoObj("run completed", "run_meta", map[string]any{
		"run_id":     report.RunID,
		"succeeded":  report.Count(StateSucceeded),
		"http_error": report.Count(StateHTTPError),
		"failed":     report.Count(StateFailed),
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})
	return report
}

// containFlow runs one flow and turns a panic into a failed outcome.
func (r *Runner) containFlow(ctx context.Context, flow string) Outcome {
	start := time.Now()
	var out Outcome
	var pc panics.Catcher
	pc.Try(func() { out = r.runFlow(ctx, flow) })
	if rec := pc.Recovered(); rec != nil {
		out = Outcome{Flow: flow, State: StateFailed, Err: &async.PanicError{Value: rec.Value, Stack: rec.Stack}}
		r.logFailure(out)
	}
	if !out.State.Terminal() {
		out.Err = fmt.Errorf("flow %q stopped in non-terminal state %q", flow, out.State)
		out.State = StateFailed
		r.logFailure(out)
	}
	out.Elapsed = time.Since(start)
	return out
}

func (r *Runner) runFlow(ctx context.Context, flow string) Outcome {
	out := Outcome{Flow: flow, State: StateIssued}
	switch flow {
	case config.FlowPosts:
		settle(ctx, r, &out, r.clients.Placeholder.GetPosts(ctx), func(posts []domain.Post) error {
			out.Items = len(posts)
			return nil
		})
	case config.FlowUsers:
		settle(ctx, r, &out, r.clients.Placeholder.GetUsers(ctx), func(users []domain.User) error {
			out.Items = len(users)
			return nil
		})
	case config.FlowPhotos:
		settle(ctx, r, &out, r.clients.Placeholder.GetPhotos(ctx), func(photos []domain.Photo) error {
			out.Items = len(photos)
			return r.loadLastPhoto(ctx, &out, photos)
		})
	case config.FlowPopularMovies:
		settle(ctx, r, &out, r.clients.TMDB.GetPopularMovies(ctx), func(movies domain.MovieResponse) error {
			out.Items = len(movies.Results)
			return nil
		})
	}
	return out
}

// settle awaits an issued request and moves out to its terminal state.
func settle[T any](ctx context.Context, r *Runner, out *Outcome, d *async.Deferred[api.Envelope[T]], onSuccess func(T) error) {
	out.State = StatePending
	select {
	case <-d.Done():
	default:
		r.log.DebugObj("flow pending", "flow", out.Flow)
	}

	env, err := d.Await(ctx)
	if err != nil {
		out.State = StateFailed
		out.Err = err
		r.logFailure(*out)
		return
	}

	out.StatusCode = env.StatusCode
	if !env.IsSuccessful() {
		out.State = StateHTTPError
		out.ErrorBody = env.ErrorBodyString()
		r.log.WarnObj("flow returned http error", "flow_http_error", map[string]any{
			"flow":       out.Flow,
			"status":     env.StatusCode,
			"error_body": out.ErrorBody,
		})
		return
	}

	if err := onSuccess(env.Body); err != nil {
		out.State = StateFailed
		out.Err = err
		r.logFailure(*out)
		return
	}
	out.State = StateSucceeded
	r.log.InfoObj("flow succeeded", "flow_result", map[string]any{
		"flow":      out.Flow,
		"status":    out.StatusCode,
		"items":     out.Items,
		"image_url": out.ImageURL,
	})
}

// loadLastPhoto hands the last photo's URL to the loader. An empty list has
// nothing to show and is skipped.
func (r *Runner) loadLastPhoto(ctx context.Context, out *Outcome, photos []domain.Photo) error {
	if len(photos) == 0 {
		r.log.InfoObj("photos list empty; skipping image load", "flow", out.Flow)
		return nil
	}
	if r.loader == nil {
		return nil
	}
	out.ImageURL = photos[len(photos)-1].URL
	res, err := r.loader.Load(ctx, out.ImageURL)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	r.log.DebugObj("image loaded", "image_result", map[string]any{
		"url":        res.URL,
		"bytes":      res.Bytes,
		"from_cache": res.FromCache,
		"path":       res.Path,
	})
	return nil
}

func (r *Runner) logFailure(out Outcome) {
	r.log.WarnObj("flow failed", "flow_error", map[string]any{
		"flow":  out.Flow,
		"error": errString(out.Err),
	})
}

// publish sends the outcome downstream. It outlives a cancelled run context so
// that teardown outcomes are still reported.
func (r *Runner) publish(ctx context.Context, runID string, out Outcome) {
	if r.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(runID, out.Flow, string(out.State))
	evt.StatusCode = out.StatusCode
	evt.Items = out.Items
	evt.ImageURL = out.ImageURL
	evt.Error = errString(out.Err)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	delivered, err := r.fanout.Publish(pubCtx, evt)
	if err != nil {
		r.log.ErrorObj("outcome publish failed", "publish_error", map[string]any{
			"flow":      out.Flow,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
}

func (r *Runner) close() {
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			r.log.ErrorObj("resource close failed", "error", err.Error())
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
