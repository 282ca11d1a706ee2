package tx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taxdesk/pkg/domain-errors"
)

func TestShardedRunner_SerializesSameKey(t *testing.T) {
	r := NewShardedRunner(time.Second)
	var (
		wg      sync.WaitGroup
		counter int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.RunInTx(context.Background(), "client-1", func(context.Context) error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestShardedRunner_CancelledContext(t *testing.T) {
	r := NewShardedRunner(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := r.RunInTx(ctx, "client-1", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}

func TestShardedRunner_AppliesDefaultDeadline(t *testing.T) {
	r := NewShardedRunner(50 * time.Millisecond)
	err := r.RunInTx(context.Background(), "k", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	assert.NoError(t, err)
}
