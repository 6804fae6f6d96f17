package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"go.uber.org/zap"
)

const (
	maxStoredFailures   = 100
	defaultWriteTimeout = 5 * time.Second
)

type ProgressFunc func(attempted, succeeded, total int)

// WriteRecorder observes each individual sink write.
type WriteRecorder interface {
	ObserveWrite(succeeded bool, duration time.Duration)
}

// UploaderConfig configures an Uploader. NewPacer, when set, builds a fresh
// pacer for every Upload call and takes precedence over the shared Pacer.
type UploaderConfig struct {
	Pacer        Pacer
	NewPacer     func() Pacer
	WriteTimeout time.Duration
	Now          func() time.Time
	Recorder     WriteRecorder
	Logger       *zap.Logger
}

type Uploader struct {
	cfg UploaderConfig
}

func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.Pacer == nil {
		cfg.Pacer = NewFixedIntervalPacer(defaultUploadDelay)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Uploader{cfg: cfg}
}

// Upload writes every record of batch to sink in order, one at a time.
// A failed write is counted and the loop moves on. The context is only
// checked between records; on cancellation the partial outcome is returned
// together with the context error.
func (u *Uploader) Upload(ctx context.Context, batch *domain.Batch, sink domain.RemoteWriteSink, onProgress ProgressFunc) (domain.Outcome, error) {
	total := batch.Len()
	if total == 0 {
		return domain.Outcome{}, ErrEmptyBatch
	}
	if !batch.Claim() {
		return domain.Outcome{}, ErrBatchConsumed
	}
	if onProgress == nil {
		onProgress = func(int, int, int) {}
	}

	pacer := u.cfg.Pacer
	if u.cfg.NewPacer != nil {
		pacer = u.cfg.NewPacer()
	}

	outcome := domain.Outcome{}
	for i := 0; i < total; i++ {
		if err := u.write(ctx, sink, batch.At(i)); err != nil {
			outcome.Failed++
			if len(outcome.Failures) < maxStoredFailures {
				outcome.Failures = append(outcome.Failures, domain.WriteFailure{
					Index:  i,
					Reason: truncateReason(err.Error()),
				})
			}
			u.cfg.Logger.Warn("account write failed",
				zap.Int("index", i),
				zap.String("account_id", batch.At(i).AccountID()),
				zap.Error(err),
			)
		} else {
			outcome.Succeeded++
		}

		outcome.Attempted++
		onProgress(outcome.Attempted, outcome.Succeeded, total)

		if outcome.Attempted == total {
			break
		}
		if err := pacer.Wait(ctx); err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}

func (u *Uploader) write(ctx context.Context, sink domain.RemoteWriteSink, record domain.Record) error {
	writeCtx, cancel := context.WithTimeout(ctx, u.cfg.WriteTimeout)
	defer cancel()

	started := time.Now()
	_, err := sink.Append(writeCtx, domain.NewPayload(record, u.cfg.Now()))
	if u.cfg.Recorder != nil {
		u.cfg.Recorder.ObserveWrite(err == nil, time.Since(started))
	}
	if err != nil {
		return fmt.Errorf("append account: %w", err)
	}
	return nil
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
