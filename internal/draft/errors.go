package draft

import "errors"

// Builder errors. The processor and applier map these onto the job error
// code taxonomy; the builder itself stays free of job concerns.
var (
	// ErrDraftInvalid is returned when draft content fails structural
	// validation. It is always wrapped with a message naming the exact
	// violation.
	ErrDraftInvalid = errors.New("draft invalid")

	// ErrNoActiveCategory is returned when no category was supplied and
	// the active category pool is empty.
	ErrNoActiveCategory = errors.New("no active category available")

	// ErrNoActiveDifficulty is returned when no difficulty was supplied
	// and the active difficulty pool is empty.
	ErrNoActiveDifficulty = errors.New("no active difficulty available")

	// ErrNoLanguages is returned when the configured language set is
	// empty; translation coverage cannot be checked against nothing.
	ErrNoLanguages = errors.New("no languages configured")
)
