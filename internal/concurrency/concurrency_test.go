package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPoolRunsAllTasks(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	var ran atomic.Int64
	p := NewPool(context.Background(), 4)
	for i := 0; i < 32; i++ {
		p.Go(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	require.Equal(t, int64(32), ran.Load())
}

func TestPoolReturnsFirstError(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	errBoom := errors.New("boom")
	p := NewPool(context.Background(), 2)
	p.Go(func(ctx context.Context) error {
		return errBoom
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done() // cancelled by the failing sibling
		return ctx.Err()
	})
	require.ErrorIs(t, p.Wait(), errBoom)
}

func TestPoolRespectsParentCancellation(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool(ctx, 2)
	p.Go(func(ctx context.Context) error {
		return ctx.Err()
	})
	require.ErrorIs(t, p.Wait(), context.Canceled)
}
