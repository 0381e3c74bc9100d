package service

import (
	"context"
	"sync"
	"time"

	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
)

// shardedTx provides the per-change mutual-exclusion scope without a
// database: operations are distributed across N mutex shards by a hash of
// the change id, so two operations on the same change serialize while
// unrelated changes proceed in parallel. The postgres deployment replaces
// this with a real transaction (see store/postgres.Tx).
const numShards = 128

// defaultTxTimeout bounds how long one workflow operation may hold a shard.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx builds the in-process transaction boundary.
func NewShardedTx() ChangeTx {
	return &shardedTx{timeout: defaultTxTimeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, changeID id.ChangeID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := hashChangeID(changeID) % numShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Re-check after acquiring the lock: a caller may have given up while
	// we waited.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation aborted: context cancelled")
	}

	return fn(ctx)
}

// hashChangeID uses FNV-1a over the raw uuid bytes.
func hashChangeID(changeID id.ChangeID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range changeID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return h
}
