package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// Strategy names, in the order they are attempted
const (
	StrategyPlain          = "plain"
	StrategyNoCertCheck    = "no-cert-check"
	StrategyBrowserHeaders = "browser-headers"
	StrategyPreferInsecure = "prefer-insecure"
)

// DefaultStrategies returns the extraction configurations tried by the
// resolver, from least to most permissive.
func DefaultStrategies(userAgent string) []domain.ExtractionConfig {
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}
	return []domain.ExtractionConfig{
		{Name: StrategyPlain},
		{Name: StrategyNoCertCheck, SkipCertCheck: true},
		{
			Name:          StrategyBrowserHeaders,
			SkipCertCheck: true,
			Headers:       map[string]string{"User-Agent": userAgent},
		},
		{Name: StrategyPreferInsecure, SkipCertCheck: true, PreferInsecure: true},
	}
}

// MetadataResolver turns a URL into VideoMetadata by trying extraction
// strategies in order until one succeeds.
type MetadataResolver struct {
	engine         domain.MediaEngine
	strategies     []domain.ExtractionConfig
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// NewMetadataResolver creates a new resolver
func NewMetadataResolver(
	engine domain.MediaEngine,
	strategies []domain.ExtractionConfig,
	attemptTimeout time.Duration,
	logger *zap.Logger,
) *MetadataResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataResolver{
		engine:         engine,
		strategies:     strategies,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Resolve returns normalized metadata from the first strategy that works.
// When all fail it returns a *domain.ResolutionError.
func (r *MetadataResolver) Resolve(ctx context.Context, url string) (domain.VideoMetadata, error) {
	attempts := make([]domain.ExtractionAttempt, 0, len(r.strategies))

	for i, strategy := range r.strategies {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, domain.ExtractionAttempt{Strategy: strategy.Name, Err: err})
			break
		}

		r.logger.Debug("Trying extraction strategy",
			zap.String("url", url),
			zap.Int("attempt", i+1),
			zap.String("strategy", strategy.Name))

		raw, err := r.attempt(ctx, url, strategy)
		if err == nil {
			r.logger.Info("Metadata extracted",
				zap.String("url", url),
				zap.String("strategy", strategy.Name))
			return domain.NormalizeMetadata(raw, url), nil
		}

		attempts = append(attempts, domain.ExtractionAttempt{Strategy: strategy.Name, Err: err})
		r.logger.Warn("Extraction strategy failed",
			zap.String("url", url),
			zap.String("strategy", strategy.Name),
			zap.Error(err))
	}

	resErr := &domain.ResolutionError{URL: url, Attempts: attempts}
	r.logger.Error("All extraction strategies failed",
		zap.String("url", url),
		zap.Error(resErr))
	return domain.VideoMetadata{}, resErr
}

// attempt runs one strategy under its own deadline
func (r *MetadataResolver) attempt(ctx context.Context, url string, strategy domain.ExtractionConfig) (raw domain.RawMetadata, err error) {
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			raw, err = nil, fmt.Errorf("extraction panicked: %v", p)
		}
	}()

	raw, err = r.engine.ExtractMetadata(ctx, url, strategy)
	if err == nil && raw == nil {
		err = fmt.Errorf("engine returned no metadata")
	}
	return raw, err
}
