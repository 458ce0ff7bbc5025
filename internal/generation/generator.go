// Package generation defines the boundary to the external AI collaborator.
// The pipeline depends only on the Generator interface; the Gemini-backed
// implementation lives in internal/platform/gemini.
package generation

import "context"

// InlineImage is one image attachment of a generation request, re-encoded
// for inline transport to the model.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// Request is the model-facing payload of one generation attempt.
type Request struct {
	// Prompt is the free-text user prompt, already extended with any
	// explicit question count instruction.
	Prompt string

	// SystemInstruction enumerates the configured languages and the
	// exact expected JSON shape with per-type answer count rules.
	SystemInstruction string

	// Images are the job's assets, sent inline.
	Images []InlineImage
}

// Generator produces raw draft text from a generation request. The
// response is expected to contain a JSON document; parsing and validation
// are the caller's responsibility.
type Generator interface {
	// GenerateDraft invokes the model and returns its raw text response.
	GenerateDraft(ctx context.Context, req Request) (string, error)
}
