package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"go.uber.org/zap"
)

const (
	defaultLockTTL          = 30 * time.Minute
	defaultMaxDocumentBytes = 10 << 20
	lockKeyPrefix           = "account-import:"
)

type ImportSource interface {
	Open(ctx context.Context, sourcePath string) (io.ReadCloser, error)
}

type UploadLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ImportRecorder observes parse results and upload lifecycles.
type ImportRecorder interface {
	ObserveParse(accepted, dropped int)
	UploadStarted()
	UploadFinished(state domain.UploadState)
}

type ImportAccountsInput struct {
	Filename    string
	ContentType string
	Content     []byte
	SourcePath  string
}

type StartAccountImportOutput struct {
	UploadID string `json:"upload_id"`
	Status   string `json:"status"`
	Format   string `json:"format"`
	Total    int    `json:"total"`
	Dropped  int    `json:"dropped"`
}

type StartAccountImport interface {
	Execute(ctx context.Context, in ImportAccountsInput) (StartAccountImportOutput, error)
}

type AccountImporterConfig struct {
	LockTTL          time.Duration
	MaxDocumentBytes int64
}

// AccountImporter parses a document and uploads the resulting batch in the
// background. Runs outlive the request that started them and stop when the
// base context passed to NewAccountImporter is cancelled.
type AccountImporter struct {
	baseCtx  context.Context
	source   ImportSource
	sink     domain.RemoteWriteSink
	uploader *Uploader
	tracker  *UploadTracker
	lock     UploadLock
	recorder ImportRecorder
	logger   *zap.Logger
	cfg      AccountImporterConfig

	wg sync.WaitGroup
}

func NewAccountImporter(
	baseCtx context.Context,
	source ImportSource,
	sink domain.RemoteWriteSink,
	uploader *Uploader,
	tracker *UploadTracker,
	lock UploadLock,
	recorder ImportRecorder,
	logger *zap.Logger,
	cfg AccountImporterConfig,
) *AccountImporter {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if recorder == nil {
		recorder = nopImportRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AccountImporter{
		baseCtx:  baseCtx,
		source:   source,
		sink:     sink,
		uploader: uploader,
		tracker:  tracker,
		lock:     lock,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
	}
}

func (uc *AccountImporter) Execute(ctx context.Context, in ImportAccountsInput) (StartAccountImportOutput, error) {
	raw, format, err := loadDocument(ctx, uc.source, in, uc.cfg.MaxDocumentBytes)
	if err != nil {
		return StartAccountImportOutput{}, err
	}

	parsed, err := ParseAccounts(raw, format)
	if err != nil {
		return StartAccountImportOutput{}, err
	}
	uc.recorder.ObserveParse(parsed.Accepted(), parsed.DroppedCount)

	lockKey := lockKeyPrefix + documentDigest(raw)
	acquired, err := uc.lock.Acquire(ctx, lockKey, uc.cfg.LockTTL)
	if err != nil {
		return StartAccountImportOutput{}, fmt.Errorf("%w: %v", ErrStartUpload, err)
	}
	if !acquired {
		return StartAccountImportOutput{}, ErrUploadInProgress
	}

	run := uc.tracker.Start(parsed.Accepted(), parsed.DroppedCount, parsed.Format)
	uc.logger.Info("account upload started",
		zap.String("upload_id", run.ID),
		zap.String("format", string(parsed.Format)),
		zap.Int("total", run.Total),
		zap.Int("dropped", run.Dropped),
	)

	uc.recorder.UploadStarted()
	uc.wg.Add(1)
	go uc.run(run.ID, lockKey, parsed.Batch)

	return StartAccountImportOutput{
		UploadID: run.ID,
		Status:   string(run.State),
		Format:   string(parsed.Format),
		Total:    run.Total,
		Dropped:  run.Dropped,
	}, nil
}

// Wait blocks until every background upload has returned.
func (uc *AccountImporter) Wait() {
	uc.wg.Wait()
}

func (uc *AccountImporter) run(uploadID, lockKey string, batch *domain.Batch) {
	defer uc.wg.Done()
	defer uc.releaseLock(uploadID, lockKey)

	uc.tracker.Begin(uploadID)

	outcome, err := uc.uploader.Upload(uc.baseCtx, batch, uc.sink, func(attempted, succeeded, total int) {
		uc.tracker.Progress(uploadID, attempted, succeeded, total)
	})
	if err != nil {
		uc.tracker.Abort(uploadID, outcome, err.Error())
		uc.recorder.UploadFinished(domain.UploadStateAborted)
		uc.logger.Warn("account upload aborted",
			zap.String("upload_id", uploadID),
			zap.Int("attempted", outcome.Attempted),
			zap.Int("succeeded", outcome.Succeeded),
			zap.Int("failed", outcome.Failed),
			zap.Error(err),
		)
		return
	}

	uc.tracker.Finish(uploadID, outcome)
	uc.recorder.UploadFinished(domain.UploadStateCompleted)
	uc.logger.Info("account upload completed",
		zap.String("upload_id", uploadID),
		zap.Int("attempted", outcome.Attempted),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
	)
}

func (uc *AccountImporter) releaseLock(uploadID, lockKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := uc.lock.Release(ctx, lockKey); err != nil {
		uc.logger.Error("release upload lock failed", zap.String("upload_id", uploadID), zap.Error(err))
	}
}

func loadDocument(ctx context.Context, source ImportSource, in ImportAccountsInput, maxBytes int64) ([]byte, Format, error) {
	if len(in.Content) > 0 {
		if int64(len(in.Content)) > maxBytes {
			return nil, "", fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidImportSource, maxBytes)
		}
		return in.Content, DetectFormat(in.Filename, in.ContentType), nil
	}

	sourcePath := strings.TrimSpace(in.SourcePath)
	if sourcePath == "" || source == nil {
		return nil, "", ErrInvalidImportSource
	}
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".json", ".csv", ".tsv":
	default:
		return nil, "", ErrInvalidImportSource
	}

	reader, err := source.Open(ctx, sourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadImportSource, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadImportSource, err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, "", fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidImportSource, maxBytes)
	}

	return raw, DetectFormat(sourcePath, ""), nil
}

func documentDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

type nopImportRecorder struct{}

func (nopImportRecorder) ObserveParse(int, int) {}

func (nopImportRecorder) UploadStarted() {}

func (nopImportRecorder) UploadFinished(domain.UploadState) {}
