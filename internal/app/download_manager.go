package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// Downloader fetches a request into a scratch directory
type Downloader interface {
	Download(ctx context.Context, req domain.DownloadRequest, scratchDir string) domain.DownloadResult
}

// DeliverFunc hands a finished download to the user. It runs while the
// file still exists; the scratch directory is removed once it returns.
type DeliverFunc func(ctx context.Context, result domain.DownloadResult) error

// noticeTimeout bounds delivery of a failure notice once the job context is gone
const noticeTimeout = 15 * time.Second

// DownloadManager runs downloads on background goroutines, bounded by
// download.concurrent_limit, and records every attempt in the ledger.
// Jobs outlive the context they were submitted with; only Shutdown aborts them.
type DownloadManager struct {
	downloader Downloader
	repo       domain.DeliveryRepository
	config     *domain.DownloadConfig
	logger     *zap.Logger
	semaphore  chan struct{}
	active     atomic.Int64
	wg         sync.WaitGroup

	base   context.Context
	cancel context.CancelFunc
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	downloader Downloader,
	repo domain.DeliveryRepository,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &DownloadManager{
		downloader: downloader,
		repo:       repo,
		config:     config,
		logger:     logger,
		semaphore:  make(chan struct{}, limit),
		base:       base,
		cancel:     cancel,
	}
}

// Submit starts a download in the background and returns its job id.
// The job keeps ctx's values but not its cancellation.
func (dm *DownloadManager) Submit(ctx context.Context, sid domain.SessionID, req domain.DownloadRequest, deliver DeliverFunc) string {
	delivery := domain.NewDelivery(sid, req)
	if dm.repo != nil {
		if err := dm.repo.Create(delivery); err != nil {
			dm.logger.Error("Failed to record delivery", zap.String("id", delivery.ID), zap.Error(err))
		}
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(dm.base, cancel)

	dm.wg.Add(1)
	go func() {
		defer dm.wg.Done()
		defer cancel()
		defer stop()
		dm.process(jobCtx, delivery, req, deliver)
	}()
	return delivery.ID
}

// Wait blocks until all submitted downloads have finished
func (dm *DownloadManager) Wait() {
	dm.wg.Wait()
}

// Shutdown waits for in-flight downloads until ctx is done, then aborts the
// rest. Aborted jobs still report their failure before Shutdown returns.
func (dm *DownloadManager) Shutdown(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		dm.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		dm.cancel()
		return nil
	case <-ctx.Done():
	}

	dm.logger.Warn("Aborting downloads still running at shutdown", zap.Int64("active", dm.ActiveCount()))
	dm.cancel()
	<-drained
	return ctx.Err()
}

// ActiveCount returns the number of downloads currently holding a slot
func (dm *DownloadManager) ActiveCount() int64 {
	return dm.active.Load()
}

// process runs one job end to end. The scratch directory never outlives it.
func (dm *DownloadManager) process(ctx context.Context, delivery *domain.Delivery, req domain.DownloadRequest, deliver DeliverFunc) {
	logger := dm.logger.With(
		zap.String("id", delivery.ID),
		zap.Int64("session_id", delivery.SessionID),
		zap.String("url", req.Metadata.SourceURL),
		zap.String("kind", string(req.Kind)))

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Download job panicked", zap.Any("panic", p))
			dm.finish(delivery, domain.FailedDownload(fmt.Errorf("%w: panic: %v", domain.ErrDownloadFailed, p)), nil)
		}
	}()

	// Acquire a download slot
	select {
	case dm.semaphore <- struct{}{}:
		defer func() { <-dm.semaphore }()
	case <-ctx.Done():
		result := domain.FailedDownload(fmt.Errorf("%w: %w", domain.ErrDownloadFailed, ctx.Err()))
		deliverErr := dm.deliver(ctx, deliver, result)
		dm.finish(delivery, result, deliverErr)
		return
	}
	dm.active.Add(1)
	defer dm.active.Add(-1)

	logger.Info("Processing download")
	start := time.Now()

	result := dm.download(ctx, delivery.ID, req, deliver, logger)

	logger.Info("Download finished",
		zap.Bool("success", result.result.Success),
		zap.Duration("elapsed", time.Since(start)))
	dm.finish(delivery, result.result, result.deliverErr)
}

type jobOutcome struct {
	result     domain.DownloadResult
	deliverErr error
}

// download creates the scratch directory, fetches, delivers, then cleans up
func (dm *DownloadManager) download(ctx context.Context, id string, req domain.DownloadRequest, deliver DeliverFunc, logger *zap.Logger) jobOutcome {
	var out jobOutcome

	scratchDir, err := os.MkdirTemp(dm.config.ScratchRoot, "likegate-"+id+"-")
	if err != nil {
		out.result = domain.FailedDownload(fmt.Errorf("%w: failed to create scratch directory: %w", domain.ErrDownloadFailed, err))
		out.deliverErr = dm.deliver(ctx, deliver, out.result)
		return out
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			logger.Warn("Failed to remove scratch directory", zap.String("dir", scratchDir), zap.Error(err))
		}
	}()

	fetchCtx := ctx
	if dm.config.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, dm.config.Timeout)
		defer cancel()
	}

	out.result = dm.downloader.Download(fetchCtx, req, scratchDir)
	if !out.result.Success {
		logger.Warn("Download failed", zap.Error(out.result.Err))
	}

	out.deliverErr = dm.deliver(ctx, deliver, out.result)
	if out.deliverErr != nil {
		logger.Warn("Delivery failed", zap.Error(out.deliverErr))
	}
	return out
}

// deliver runs the callback. A job aborted by Shutdown still gets a short,
// uncancelled window to tell the user.
func (dm *DownloadManager) deliver(ctx context.Context, deliver DeliverFunc, result domain.DownloadResult) error {
	if ctx.Err() == nil {
		return deliver(ctx, result)
	}
	noticeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), noticeTimeout)
	defer cancel()
	return deliver(noticeCtx, result)
}

// finish records the terminal state of a delivery
func (dm *DownloadManager) finish(delivery *domain.Delivery, result domain.DownloadResult, deliverErr error) {
	switch {
	case !result.Success:
		delivery.MarkFailed(result.Err)
	case deliverErr != nil:
		delivery.MarkFailed(deliverErr)
	default:
		delivery.MarkCompleted(filepath.Base(result.FilePath), result.Transcoded)
	}

	if dm.repo == nil {
		return
	}
	if err := dm.repo.Update(delivery); err != nil {
		dm.logger.Error("Failed to update delivery status",
			zap.String("id", delivery.ID),
			zap.Error(err))
	}
}
