package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	ownerID := uuid.New()
	input := JobInput{Prompt: "ten questions about rivers", QuestionCount: 10}

	job, err := NewJob(ownerID, input, "1", "batch", "aigen:run-1")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, ownerID, job.OwnerID)
	assert.Equal(t, JobTypeQuizGeneration, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "aigen:run-1", job.Tag)
	assert.Nil(t, job.ResultRef)
	assert.False(t, job.CreatedAt.IsZero())
	assert.False(t, job.UpdatedAt.IsZero())
}

func TestNewJobValidation(t *testing.T) {
	tests := []struct {
		name    string
		ownerID uuid.UUID
		input   JobInput
		wantErr error
	}{
		{
			name:    "empty owner",
			ownerID: uuid.Nil,
			input:   JobInput{Prompt: "anything"},
			wantErr: ErrEmptyJobOwnerID,
		},
		{
			name:    "empty prompt",
			ownerID: uuid.New(),
			input:   JobInput{},
			wantErr: ErrEmptyJobPrompt,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewJob(tc.ownerID, tc.input, "", "api", "")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestJobApplyOnlyAndTerminal(t *testing.T) {
	job, err := NewJob(uuid.New(), JobInput{Prompt: "p"}, "", "api", "")
	require.NoError(t, err)

	// Pending is neither apply-only nor terminal.
	assert.False(t, job.ApplyOnly())
	assert.False(t, job.Terminal())

	// Success without a result ref is a valid resting state.
	job.Status = JobStatusSuccess
	assert.True(t, job.ApplyOnly())
	assert.False(t, job.Terminal())

	// Setting the result ref makes it terminal.
	ref := uuid.New()
	job.ResultRef = &ref
	assert.False(t, job.ApplyOnly())
	assert.True(t, job.Terminal())

	// Failed is always terminal.
	failed, err := NewJob(uuid.New(), JobInput{Prompt: "p"}, "", "api", "")
	require.NoError(t, err)
	failed.Status = JobStatusFailed
	assert.True(t, failed.Terminal())
	assert.False(t, failed.ApplyOnly())
}

func TestJobValidateRejectsBadStatus(t *testing.T) {
	job, err := NewJob(uuid.New(), JobInput{Prompt: "p"}, "", "api", "")
	require.NoError(t, err)

	job.Status = JobStatus("queued")
	assert.ErrorIs(t, job.Validate(), ErrInvalidJobStatus)
}
