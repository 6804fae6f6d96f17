package account

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

const defaultRunRetention = time.Hour

type UploadRun struct {
	ID         string
	State      domain.UploadState
	Format     Format
	Total      int
	Dropped    int
	Attempted  int
	Succeeded  int
	Failed     int
	Failures   []domain.WriteFailure
	Message    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (r UploadRun) Percent() int {
	if r.Total == 0 {
		return 0
	}
	return r.Attempted * 100 / r.Total
}

// UploadTracker keeps the state of upload runs in memory. Finished runs are
// forgotten once they are older than the retention period.
type UploadTracker struct {
	mu        sync.RWMutex
	runs      map[string]*UploadRun
	retention time.Duration
	now       func() time.Time
}

func NewUploadTracker(retention time.Duration) *UploadTracker {
	if retention <= 0 {
		retention = defaultRunRetention
	}
	return &UploadTracker{
		runs:      make(map[string]*UploadRun),
		retention: retention,
		now:       time.Now,
	}
}

func (t *UploadTracker) Start(total, dropped int, format Format) UploadRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.evictLocked()

	run := &UploadRun{
		ID:        newRunID(),
		State:     domain.UploadStateIdle,
		Format:    format,
		Total:     total,
		Dropped:   dropped,
		StartedAt: t.now(),
	}
	t.runs[run.ID] = run
	return *run
}

// Begin moves an idle run to running.
func (t *UploadTracker) Begin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if run, ok := t.runs[id]; ok && run.State == domain.UploadStateIdle {
		run.State = domain.UploadStateRunning
	}
}

func (t *UploadTracker) Progress(id string, attempted, succeeded, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[id]
	if !ok || run.State != domain.UploadStateRunning {
		return
	}
	run.Attempted = attempted
	run.Succeeded = succeeded
	run.Failed = attempted - succeeded
	run.Total = total
}

func (t *UploadTracker) Finish(id string, outcome domain.Outcome) {
	t.close(id, domain.UploadStateCompleted, outcome, completionMessage(outcome))
}

func (t *UploadTracker) Abort(id string, outcome domain.Outcome, reason string) {
	t.mu.RLock()
	total := 0
	if run, ok := t.runs[id]; ok {
		total = run.Total
	}
	t.mu.RUnlock()

	message := fmt.Sprintf("Upload aborted after %d of %d accounts: %s", outcome.Attempted, total, reason)
	t.close(id, domain.UploadStateAborted, outcome, message)
}

func (t *UploadTracker) Get(id string) (UploadRun, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[id]
	if !ok {
		return UploadRun{}, false
	}
	copied := *run
	copied.Failures = append([]domain.WriteFailure(nil), run.Failures...)
	return copied, true
}

func (t *UploadTracker) close(id string, state domain.UploadState, outcome domain.Outcome, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[id]
	if !ok {
		return
	}
	finishedAt := t.now()
	run.State = state
	run.Attempted = outcome.Attempted
	run.Succeeded = outcome.Succeeded
	run.Failed = outcome.Failed
	run.Failures = outcome.Failures
	run.Message = message
	run.FinishedAt = &finishedAt
}

func (t *UploadTracker) evictLocked() {
	cutoff := t.now().Add(-t.retention)
	for id, run := range t.runs {
		if run.FinishedAt != nil && run.FinishedAt.Before(cutoff) {
			delete(t.runs, id)
		}
	}
}

func completionMessage(outcome domain.Outcome) string {
	if outcome.Failed == 0 {
		return fmt.Sprintf("Successfully uploaded %d accounts", outcome.Succeeded)
	}
	return fmt.Sprintf("Uploaded %d accounts (%d errors occurred)", outcome.Succeeded, outcome.Failed)
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
