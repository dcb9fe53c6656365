// Package keystore defines the durable key-value storage the client keeps on
// the device.
//
// The client persists very little: the current session's user id under
// SessionKey. Everything else is re-fetched from the remote service. The
// interface is still a general key-value contract so the session layer does
// not depend on how (or where) the value is written.
package keystore

import "context"

// SessionKey holds the authenticated user's opaque id.
const SessionKey = "uid"

// Store is a durable string key-value store.
//
// Writes are durable once the call returns: a Get issued after a Set or
// Delete has returned observes its effect.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}
