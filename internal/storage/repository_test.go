package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	ctx := context.Background()

	assert.NoError(t, j.EnsureSchema(ctx))
	assert.NoError(t, j.RecordAttempt(ctx, &Attempt{
		RunID:      "5f1d7f0e-8f5a-4d7e-9c4b-2f3a1b0c9d8e",
		Number:     1,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Outcome:    OutcomeNoSlots,
	}))
	assert.NoError(t, j.Close())
}
