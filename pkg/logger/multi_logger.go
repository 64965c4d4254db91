package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory names a dated JSON log file under the logs directory
type LogCategory string

const (
	CategoryDeliveries LogCategory = "deliveries" // delivery lifecycle events
	CategoryError      LogCategory = "error"      // errors from any category
)

// MultiLogger keeps one JSON file per category, named <category>-YYYYMMDD.log.
// Raw yt-dlp output is written by the engine itself and does not pass through here.
type MultiLogger struct {
	cores  map[LogCategory]zapcore.Core
	files  []*os.File
	config MultiLoggerConfig
	mu     sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string
	Now     func() time.Time
}

// NewMultiLogger opens the category files for today
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		cores:  make(map[LogCategory]zapcore.Core),
		config: config,
	}

	levels := map[LogCategory]zapcore.Level{
		CategoryDeliveries: level,
		CategoryError:      zapcore.ErrorLevel,
	}
	for category, lvl := range levels {
		core, err := ml.openCore(category, lvl)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.cores[category] = core
	}

	return ml, nil
}

func (ml *MultiLogger) openCore(category LogCategory, level zapcore.Level) (zapcore.Core, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	file, err := os.OpenFile(ml.CategoryPath(category), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level), nil
}

// CategoryPath returns today's file for a category
func (ml *MultiLogger) CategoryPath(category LogCategory) string {
	filename := fmt.Sprintf("%s-%s.log", category, ml.config.Now().Format("20060102"))
	return filepath.Join(ml.config.LogsDir, filename)
}

// Tee returns base extended to also write into the category file.
// Error-level entries are copied to the error file as well.
func (ml *MultiLogger) Tee(base *zap.Logger, category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	cores := []zapcore.Core{base.Core()}
	if core, ok := ml.cores[category]; ok {
		cores = append(cores, core.With([]zapcore.Field{zap.String("category", string(category))}))
	}
	if category != CategoryError {
		cores = append(cores, ml.cores[CategoryError].With([]zapcore.Field{zap.String("category", string(category))}))
	}
	return base.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return zapcore.NewTee(cores...)
	}))
}

// Close flushes and closes every category file
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var errs []error
	for _, core := range ml.cores {
		if err := core.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, file := range ml.files {
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	ml.files = nil
	return errors.Join(errs...)
}
