// Package store defines the persistence interfaces of the generation
// pipeline and shared helpers (transaction wrapper, DBTX abstraction,
// common error taxonomy). Implementations live in internal/platform.
package store
