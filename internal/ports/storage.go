package ports

import "context"

// Adapter is the persistence contract consumed by the sync core: a uniform
// key/value store holding string values.
//
// GetItem returns (value, true, nil) on hit and ("", false, nil) when the key
// holds nothing. Transport or backend failures are returned as errors and are
// treated by callers exactly like a miss plus an error log.
//
// Implementations must be safe for concurrent use; calls may complete in any
// order.
type Adapter interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}
