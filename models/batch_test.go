package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchJob_RecordAndSnapshot(t *testing.T) {
	job := NewBatchJob("batch-1", 3, 100)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			job.Record(idx, &ResolveResponse{Success: idx != 1})
		}(i)
	}
	wg.Wait()

	snap := job.Snapshot()
	assert.Equal(t, BatchProcessing, snap.Status)
	assert.Equal(t, 3, snap.Completed)
	assert.True(t, snap.Results[0].Success)
	assert.False(t, snap.Results[1].Success)

	job.Finish()
	assert.Equal(t, BatchCompleted, job.Snapshot().Status)
}

func TestMetadataError(t *testing.T) {
	err := NewMetadataError(ErrCodeFetchFailed, "all fetch attempts failed", assert.AnError)

	assert.True(t, HasCode(err, ErrCodeFetchFailed))
	assert.False(t, HasCode(err, ErrCodeTimeout))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, &ErrorDetail{Code: ErrCodeFetchFailed, Message: "all fetch attempts failed"}, err.ToDetail())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", Deref(StringPtr("x")))
	assert.Equal(t, "", Deref(nil))
}
