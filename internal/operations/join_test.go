package operations

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin2BothSucceed(t *testing.T) {
	out, err := Join2(context.Background(),
		func(context.Context) (string, error) { return "a", nil },
		func(context.Context) (int, error) { return 2, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "a", out.First)
	assert.Equal(t, 2, out.Second)
}

func TestJoin2RunsConcurrently(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	call := func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 1, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Join2(context.Background(), call, call)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("calls did not start concurrently")
		}
	}
	close(release)
	<-done
}

func TestJoin2FailureDoesNotCancelSibling(t *testing.T) {
	var siblingFinished atomic.Bool
	boom := errors.New("bank-b down")

	out, err := Join2(context.Background(),
		func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			siblingFinished.Store(true)
			return "bank-a", nil
		},
		func(context.Context) (string, error) { return "", boom },
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, siblingFinished.Load())
	assert.Empty(t, out.First, "no partial value on failure")
	assert.Empty(t, out.Second)
}

func TestJoin2JoinsBothErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	_, err := Join2(context.Background(),
		func(context.Context) (int, error) { return 0, errA },
		func(context.Context) (int, error) { return 0, errB },
	)

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
