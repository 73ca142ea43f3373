// Package middleware wraps a position store with at-rest protections:
// AES-GCM encryption of whole positions and masking of sensitive variables.
package middleware

import "github.com/aretw0/chatflow/pkg/ports"

// Middleware allows wrapping a PositionStore to add behavior.
type Middleware func(ports.PositionStore) ports.PositionStore

// Chain applies middlewares so that the first one listed sees calls first.
func Chain(store ports.PositionStore, mws ...Middleware) ports.PositionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
