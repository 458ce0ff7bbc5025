// Package task contains the generation pipeline: the processor that
// drives individual jobs through generation, validation, and persistence;
// the applier that idempotently commits drafts into the catalog; the
// orchestrator that runs tagged batches to completion with stall
// detection; and the cleaner that rolls a tagged run back.
package task
