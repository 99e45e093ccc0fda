// Package store provides concrete storage backends for the wallet core.
// Everything above this package talks to the narrow domain.Storage
// capability interface; the backends here are a bbolt file database for
// durable state and a map-backed store for tests.
package store
