// FILE: internal/repository/contract/online_store.go
// Adapter interface for the low-latency point-lookup tier
package contract

import "context"

// OnlineStore is the low-latency tier serving the freshest computed values.
// Values cross this boundary serialized to strings; the store is schema-less.
// A Write replaces the whole record for the key and completes in full or not
// at all.
type OnlineStore interface {
	Write(ctx context.Context, group, entityID string, values map[string]string) error
	// Read returns the stored values, or found=false when no record exists
	// for the key.
	Read(ctx context.Context, group, entityID string) (values map[string]string, found bool, err error)
	Ping(ctx context.Context) error
}
