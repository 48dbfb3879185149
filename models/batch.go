package models

import "sync"

// Batch job statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
)

// BatchJob tracks an in-progress batch resolve operation.
type BatchJob struct {
	ID        string
	Total     int
	CreatedAt int64 // unix timestamp

	mu        sync.Mutex
	status    string
	completed int
	results   []*ResolveResponse
}

// NewBatchJob creates a job with room for total results.
func NewBatchJob(id string, total int, createdAt int64) *BatchJob {
	return &BatchJob{
		ID:        id,
		Total:     total,
		CreatedAt: createdAt,
		status:    BatchProcessing,
		results:   make([]*ResolveResponse, total),
	}
}

// Record stores the result for the URL at idx.
func (j *BatchJob) Record(idx int, resp *ResolveResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = resp
	j.completed++
}

// Finish marks the job done.
func (j *BatchJob) Finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = BatchCompleted
}

// Snapshot returns a consistent copy of the job state.
func (j *BatchJob) Snapshot() BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*ResolveResponse, len(j.results))
	copy(results, j.results)
	return BatchStatusResponse{
		ID:        j.ID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.Total,
		Results:   results,
	}
}
