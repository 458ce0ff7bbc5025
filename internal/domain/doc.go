// Package domain defines the core business entities of the quiz generation
// pipeline: generation jobs and their lifecycle, draft content produced by
// the AI collaborator, the quiz aggregate committed to the catalog, and the
// taxonomy (categories, difficulties, languages) that frames them.
//
// The package contains no I/O. Persistence lives behind the interfaces in
// internal/store, and all orchestration lives in internal/task.
package domain
