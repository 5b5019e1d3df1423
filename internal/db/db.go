package db

import (
	"context"
	"time"
)

// Store is the storage facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade -- consumers declare the narrow slice they need
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	BucketStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for a pipelined hash replace.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// ReplaceHashes atomically replaces each hash (DEL+HSET in MULTI/EXEC) in one
	// round trip. The returned slice has one entry per item; nil means written.
	ReplaceHashes(ctx context.Context, items []HashSetItem) []error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}

// BucketStore runs the token-bucket check-and-take atomically on the server.
type BucketStore interface {
	TakeToken(ctx context.Context, req *TokenRequest) (TokenResult, error)
}
