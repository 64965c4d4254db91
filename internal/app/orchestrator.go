package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// Extensions recognized when discovering fetched output
var (
	AudioExtensions = []string{".mp3", ".m4a", ".webm", ".ogg", ".aac", ".opus"}
	VideoExtensions = []string{".mp4", ".mkv", ".webm", ".mov", ".m4v", ".avi"}
)

// Fetch format selectors
const (
	videoFormat          = "best[ext=mp4]/mp4/best"
	audioTranscodeFormat = "bestaudio/best"
	audioNativeFormat    = "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"

	transcodeCodec   = "mp3"
	transcodeBitrate = "192"

	// fallbackFileName is used when a title sanitizes to nothing
	fallbackFileName = "media"
)

// OutputQuery describes which scratch directory entry a fetch is expected to produce
type OutputQuery struct {
	Prefix       string
	PreferredExt string
	Extensions   []string
	// AnyPrefix accepts a known extension even when the name does not match Prefix
	AnyPrefix bool
}

// DiscoverOutput picks the fetched file among entries. Entries are file
// names; the result is deterministic for a given set of names.
func DiscoverOutput(entries []string, q OutputQuery) (string, bool) {
	names := append([]string(nil), entries...)
	sort.Strings(names)

	if q.PreferredExt != "" {
		for _, name := range names {
			if strings.HasPrefix(name, q.Prefix) && hasExt(name, q.PreferredExt) {
				return name, true
			}
		}
	}

	for _, name := range names {
		if strings.HasPrefix(name, q.Prefix) && hasAnyExt(name, q.Extensions) {
			return name, true
		}
	}

	if q.AnyPrefix {
		for _, name := range names {
			if hasAnyExt(name, q.Extensions) {
				return name, true
			}
		}
	}

	return "", false
}

func hasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

func hasAnyExt(name string, exts []string) bool {
	for _, ext := range exts {
		if hasExt(name, ext) {
			return true
		}
	}
	return false
}

// DownloadOrchestrator fetches the requested rendition into a scratch
// directory and locates the resulting file.
type DownloadOrchestrator struct {
	engine     domain.MediaEngine
	transcoder domain.ToolProbe
	logger     *zap.Logger
}

// NewDownloadOrchestrator creates a new orchestrator
func NewDownloadOrchestrator(engine domain.MediaEngine, transcoder domain.ToolProbe, logger *zap.Logger) *DownloadOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadOrchestrator{
		engine:     engine,
		transcoder: transcoder,
		logger:     logger,
	}
}

// fetchPlan is the engine configuration and discovery query for one request
type fetchPlan struct {
	config    domain.ExtractionConfig
	query     OutputQuery
	transcode bool
}

// planFetch maps a request onto engine options
func (o *DownloadOrchestrator) planFetch(req domain.DownloadRequest, scratchDir string) fetchPlan {
	safeTitle := domain.SanitizeFilename(req.Metadata.Title)
	if safeTitle == "" {
		safeTitle = fallbackFileName
	}

	plan := fetchPlan{
		config: domain.ExtractionConfig{
			Name:           string(req.Kind),
			SkipCertCheck:  true,
			OutputTemplate: filepath.Join(scratchDir, safeTitle+".%(ext)s"),
		},
		query: OutputQuery{Prefix: safeTitle},
	}

	if req.Kind == domain.KindVideo {
		plan.config.Format = videoFormat
		plan.query.PreferredExt = ".mp4"
		plan.query.Extensions = append(append([]string(nil), VideoExtensions...), AudioExtensions...)
		return plan
	}

	plan.query.Extensions = AudioExtensions
	plan.query.AnyPrefix = true

	if path, ok := o.transcoder.Available(); ok {
		o.logger.Debug("Transcoder available, converting to mp3", zap.String("path", path))
		plan.transcode = true
		plan.config.Format = audioTranscodeFormat
		plan.config.PostProcess = &domain.PostProcessor{Codec: transcodeCodec, Quality: transcodeBitrate}
		plan.query.PreferredExt = "." + transcodeCodec
	} else {
		o.logger.Debug("Transcoder not found, keeping native audio container")
		plan.config.Format = audioNativeFormat
	}
	return plan
}

// Download fetches req into scratchDir. It never panics; every failure is
// reported as an unsuccessful result wrapping domain.ErrDownloadFailed.
func (o *DownloadOrchestrator) Download(ctx context.Context, req domain.DownloadRequest, scratchDir string) (result domain.DownloadResult) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error("Download panicked", zap.Any("panic", p))
			result = domain.FailedDownload(fmt.Errorf("%w: panic: %v", domain.ErrDownloadFailed, p))
		}
	}()

	if !domain.ValidateKind(req.Kind) {
		return domain.FailedDownload(fmt.Errorf("%w: unsupported kind %q", domain.ErrDownloadFailed, req.Kind))
	}

	plan := o.planFetch(req, scratchDir)
	url := req.Metadata.SourceURL

	o.logger.Info("Fetching media",
		zap.String("url", url),
		zap.String("kind", string(req.Kind)),
		zap.String("format", plan.config.Format),
		zap.Bool("transcode", plan.transcode))

	if err := o.engine.FetchMedia(ctx, url, plan.config); err != nil {
		return domain.FailedDownload(fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err))
	}

	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		return domain.FailedDownload(fmt.Errorf("%w: failed to list scratch directory: %w", domain.ErrDownloadFailed, err))
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	name, ok := DiscoverOutput(names, plan.query)
	if !ok {
		o.logger.Warn("No output file found",
			zap.String("dir", scratchDir),
			zap.Strings("files", names))
		return domain.FailedDownload(fmt.Errorf("%w: no output file produced", domain.ErrDownloadFailed))
	}

	filePath := filepath.Join(scratchDir, name)
	o.logger.Info("Media fetched", zap.String("file", filePath))

	return domain.DownloadResult{
		Success:    true,
		FilePath:   filePath,
		Transcoded: plan.transcode && hasExt(name, "."+transcodeCodec),
	}
}
