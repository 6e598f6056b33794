package async

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAwaitReturnsValue(t *testing.T) {
	d := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})
	v, err := d.Await(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("Await = %d, %v", v, err)
	}
	v, err = d.Await(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("second Await = %d, %v", v, err)
	}
}

func TestAwaitRecoversPanic(t *testing.T) {
	d := Go(context.Background(), func(context.Context) (string, error) {
		panic("boom")
	})
	_, err := d.Await(context.Background())
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "boom" {
		t.Fatalf("unexpected panic value %v", pe.Value)
	}
}

func TestAwaitHonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	d := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGoPassesContextToWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()
	<-d.Done()
	if _, err := d.Await(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
