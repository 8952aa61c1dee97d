// Package store provides the persistence backends used by the sidegate
// engine for its saved-account list and certificate cache.
//
// Two implementations are included. Redis is the production backend and
// keeps portal state shared across processes. Memory is a process-local
// map intended for tests and single-shot command line use.
//
// Both implementations satisfy sidegate.Store and report absent keys
// with sidegate.ErrStoreKeyNotFound.
package store
