package domain

import "errors"

var (
	ErrSourceUnavailable  = errors.New("source path does not exist or is unreadable")
	ErrStaleCache         = errors.New("resident index disagrees with current directory contents")
	ErrIndexCorrupt       = errors.New("on-disk index failed to load")
	ErrEmbeddingFailure   = errors.New("embedding model call failed")
	ErrShardTimeout       = errors.New("shard query exceeded its deadline")
	ErrShardFailure       = errors.New("shard query failed")
	ErrAllShardsFailed    = errors.New("all shards failed")
	ErrReadOnlyCollection = errors.New("collection is read-only")
)
