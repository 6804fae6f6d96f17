package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type WriteFailureOutput struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type GetUploadStatusOutput struct {
	ID         string               `json:"id"`
	State      string               `json:"state"`
	Format     string               `json:"format"`
	Total      int                  `json:"total"`
	Dropped    int                  `json:"dropped"`
	Attempted  int                  `json:"attempted"`
	Succeeded  int                  `json:"succeeded"`
	Failed     int                  `json:"failed"`
	Percent    int                  `json:"percent"`
	Message    string               `json:"message,omitempty"`
	Failures   []WriteFailureOutput `json:"failures"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

type GetUploadStatus interface {
	Execute(ctx context.Context, uploadID string) (GetUploadStatusOutput, error)
}

type uploadRunReader interface {
	Get(id string) (UploadRun, bool)
}

type getUploadStatus struct {
	runs uploadRunReader
}

func NewGetUploadStatus(runs uploadRunReader) GetUploadStatus {
	return &getUploadStatus{runs: runs}
}

func (uc *getUploadStatus) Execute(ctx context.Context, uploadID string) (GetUploadStatusOutput, error) {
	if _, err := uuid.Parse(uploadID); err != nil {
		return GetUploadStatusOutput{}, ErrInvalidUploadID
	}

	run, ok := uc.runs.Get(uploadID)
	if !ok {
		return GetUploadStatusOutput{}, ErrUploadNotFound
	}

	failures := make([]WriteFailureOutput, 0, len(run.Failures))
	for _, failure := range run.Failures {
		failures = append(failures, WriteFailureOutput{Index: failure.Index, Reason: failure.Reason})
	}

	return GetUploadStatusOutput{
		ID:         run.ID,
		State:      string(run.State),
		Format:     string(run.Format),
		Total:      run.Total,
		Dropped:    run.Dropped,
		Attempted:  run.Attempted,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
		Percent:    run.Percent(),
		Message:    run.Message,
		Failures:   failures,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}, nil
}
