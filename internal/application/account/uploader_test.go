package account_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	app "github.com/mohammadpnp/account-admin/internal/application/account"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

type fakeSink struct {
	mu       sync.Mutex
	payloads []domain.Payload
	failAt   map[int]bool
	block    bool
}

func (f *fakeSink) Append(ctx context.Context, payload domain.Payload) (string, error) {
	f.mu.Lock()
	index := len(f.payloads)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.failAt[index] {
		return "", errors.New("permission denied")
	}
	return fmt.Sprintf("key-%d", index), nil
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
	err   error
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	if p.err != nil {
		return p.err
	}
	return ctx.Err()
}

type fakeWriteRecorder struct {
	ok     int
	failed int
}

func (f *fakeWriteRecorder) ObserveWrite(succeeded bool, duration time.Duration) {
	if succeeded {
		f.ok++
		return
	}
	f.failed++
}

func newBatch(t *testing.T, n int) *domain.Batch {
	t.Helper()

	records := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		r, err := domain.NewRecord(fmt.Sprintf("A%d", i), fmt.Sprintf("U%d", i), fmt.Sprintf("P%d", i), nil)
		if err != nil {
			t.Fatalf("failed to build record: %v", err)
		}
		records = append(records, r)
	}
	return domain.NewBatch(records)
}

type progressCall struct {
	attempted int
	succeeded int
	total     int
}

func TestUploaderWritesEveryRecordInOrder(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	pacer := &countingPacer{}
	recorder := &fakeWriteRecorder{}
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	uploader := app.NewUploader(app.UploaderConfig{
		Pacer:    pacer,
		Now:      func() time.Time { return now },
		Recorder: recorder,
	})

	var progress []progressCall
	outcome, err := uploader.Upload(context.Background(), newBatch(t, 5), sink, func(attempted, succeeded, total int) {
		progress = append(progress, progressCall{attempted, succeeded, total})
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sink.calls() != 5 {
		t.Fatalf("expected 5 sink calls, got %d", sink.calls())
	}
	for i, payload := range sink.payloads {
		if payload.AccountID != fmt.Sprintf("A%d", i) {
			t.Fatalf("unexpected order at %d: %s", i, payload.AccountID)
		}
		if !payload.CreatedAt.Equal(now) || !payload.UploadedAt.Equal(now) {
			t.Fatalf("unexpected timestamps at %d", i)
		}
	}

	if len(progress) != 5 {
		t.Fatalf("expected 5 progress calls, got %d", len(progress))
	}
	for i, call := range progress {
		if call.attempted != i+1 || call.total != 5 {
			t.Fatalf("unexpected progress call %d: %+v", i, call)
		}
	}

	if outcome.Attempted != 5 || outcome.Succeeded != 5 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if pacer.waits != 4 {
		t.Fatalf("expected 4 pacing waits, got %d", pacer.waits)
	}
	if recorder.ok != 5 {
		t.Fatalf("expected 5 recorded writes, got %d", recorder.ok)
	}
}

func TestUploaderContinuesAfterWriteFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{failAt: map[int]bool{2: true}}
	uploader := app.NewUploader(app.UploaderConfig{Pacer: &countingPacer{}})

	var last progressCall
	outcome, err := uploader.Upload(context.Background(), newBatch(t, 4), sink, func(attempted, succeeded, total int) {
		last = progressCall{attempted, succeeded, total}
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sink.calls() != 4 {
		t.Fatalf("expected all 4 records attempted, got %d", sink.calls())
	}
	if outcome.Attempted != 4 || outcome.Succeeded != 3 || outcome.Failed != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.Failures) != 1 || outcome.Failures[0].Index != 2 {
		t.Fatalf("unexpected failures: %+v", outcome.Failures)
	}
	if last != (progressCall{attempted: 4, succeeded: 3, total: 4}) {
		t.Fatalf("unexpected final progress: %+v", last)
	}
}

func TestUploaderEmptyBatchAborts(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	uploader := app.NewUploader(app.UploaderConfig{Pacer: &countingPacer{}})

	for _, batch := range []*domain.Batch{nil, domain.NewBatch(nil)} {
		_, err := uploader.Upload(context.Background(), batch, sink, nil)
		if !errors.Is(err, app.ErrEmptyBatch) {
			t.Fatalf("expected ErrEmptyBatch, got %v", err)
		}
	}
	if sink.calls() != 0 {
		t.Fatalf("expected no writes, got %d", sink.calls())
	}
}

func TestUploaderRejectsConsumedBatch(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	uploader := app.NewUploader(app.UploaderConfig{Pacer: &countingPacer{}})
	batch := newBatch(t, 2)

	if _, err := uploader.Upload(context.Background(), batch, sink, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_, err := uploader.Upload(context.Background(), batch, sink, nil)
	if !errors.Is(err, app.ErrBatchConsumed) {
		t.Fatalf("expected ErrBatchConsumed, got %v", err)
	}
	if sink.calls() != 2 {
		t.Fatalf("expected 2 writes, got %d", sink.calls())
	}
}

func TestUploaderWriteTimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{block: true}
	recorder := &fakeWriteRecorder{}
	uploader := app.NewUploader(app.UploaderConfig{
		Pacer:        &countingPacer{},
		WriteTimeout: 10 * time.Millisecond,
		Recorder:     recorder,
	})

	outcome, err := uploader.Upload(context.Background(), newBatch(t, 2), sink, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Attempted != 2 || outcome.Failed != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if recorder.failed != 2 {
		t.Fatalf("expected 2 failed writes recorded, got %d", recorder.failed)
	}
}

func TestUploaderStopsAtPacingCheckpointOnCancel(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	pacer := &countingPacer{err: context.Canceled}
	uploader := app.NewUploader(app.UploaderConfig{Pacer: pacer})

	outcome, err := uploader.Upload(context.Background(), newBatch(t, 3), sink, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sink.calls() != 1 {
		t.Fatalf("expected a single write before cancellation, got %d", sink.calls())
	}
	if outcome.Attempted != 1 || outcome.Succeeded != 1 {
		t.Fatalf("unexpected partial outcome: %+v", outcome)
	}
}

func TestUploaderBuildsPacerPerUpload(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		pacers []*countingPacer
	)
	uploader := app.NewUploader(app.UploaderConfig{
		NewPacer: func() app.Pacer {
			mu.Lock()
			defer mu.Unlock()
			p := &countingPacer{}
			pacers = append(pacers, p)
			return p
		},
	})

	batches := []*domain.Batch{newBatch(t, 3), newBatch(t, 3)}
	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(batch *domain.Batch) {
			defer wg.Done()
			if _, err := uploader.Upload(context.Background(), batch, &fakeSink{}, nil); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}(batch)
	}
	wg.Wait()

	if len(pacers) != 2 {
		t.Fatalf("expected one pacer per upload, got %d", len(pacers))
	}
	for i, p := range pacers {
		if p.waits != 2 {
			t.Fatalf("pacer %d: expected 2 waits, got %d", i, p.waits)
		}
	}
}
