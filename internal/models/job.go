package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCanceled  = "canceled"
)

// JobInfo is the serializable state of a Job.
type JobInfo struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connection_id"`
	EntityType   string     `json:"entity_type"`
	EntityID     string     `json:"entity_id,omitempty"`
	Operation    string     `json:"operation"`
	Status       string     `json:"status"` // "running", "completed", "failed", "canceled"
	TaskID       string     `json:"task_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Result       any        `json:"result,omitempty"`
	Error        string     `json:"error,omitempty"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	Output       []string   `json:"output"`
}

// Job tracks one entity operation dispatched through the gateway.
type Job struct {
	JobInfo

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Info returns a copy of the job's current state.
func (j *Job) Info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	info := j.JobInfo
	info.Output = make([]string, len(j.Output))
	copy(info.Output, j.Output)
	return info
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// SetTask records the backend task the operation is waiting on.
func (j *Job) SetTask(taskID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.TaskID = taskID
}

// GetStatus returns the current status.
func (j *Job) GetStatus() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// Done reports whether the job reached a final status.
func (j *Job) Done() bool {
	return j.GetStatus() != JobRunning
}

// Complete marks the job as completed with the resolved result.
func (j *Job) Complete(result any) {
	j.finish(JobCompleted, result, "", "")
}

// Fail marks the job as failed with an error message and its kind.
func (j *Job) Fail(err, kind string) {
	j.finish(JobFailed, nil, err, kind)
}

// Cancel stops the job's operation. The job moves to "canceled" once the
// operation returns.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobRunning || j.cancel == nil {
		return false
	}
	j.cancel()
	return true
}

// Canceled marks the job as canceled.
func (j *Job) Canceled() {
	j.finish(JobCanceled, nil, "canceled by user", "canceled")
}

func (j *Job) finish(status string, result any, err, kind string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobRunning {
		return
	}
	j.Status = status
	j.Result = result
	j.Error = err
	j.ErrorKind = kind
	now := time.Now()
	j.FinishedAt = &now
	if j.cancel != nil {
		j.cancel()
	}
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new running job, assigning it a UUID. The returned context
// is canceled when the job is canceled or finishes.
func (s *JobStore) Create(parent context.Context, connectionID, entityType, entityID, operation string) (*Job, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	j := &Job{
		JobInfo: JobInfo{
			ID:           uuid.New().String(),
			ConnectionID: connectionID,
			EntityType:   entityType,
			EntityID:     entityID,
			Operation:    operation,
			Status:       JobRunning,
			StartedAt:    time.Now(),
			Output:       []string{},
		},
		cancel: cancel,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return j, ctx
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].StartedAt.After(result[b].StartedAt)
	})
	return result
}
