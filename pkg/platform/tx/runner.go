package tx

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "taxdesk/pkg/domain-errors"
)

// Runner is the unit-of-work boundary services run mutations in. The key
// names the aggregate being mutated (a client ID, an actor ID); runners may
// use it to serialize writers of the same aggregate.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

const (
	numShards      = 128
	defaultTimeout = 5 * time.Second
)

// ShardedRunner is the in-memory Runner. Writers of the same key take the
// same mutex; unrelated keys rarely contend. There is no rollback, so
// callers validate fully before their first write.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedRunner(timeout time.Duration) *ShardedRunner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ShardedRunner{timeout: timeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shard := &r.shards[shardFor(key)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numShards
}
