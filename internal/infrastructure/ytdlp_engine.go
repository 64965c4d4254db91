package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is killed
const waitDelay = 5 * time.Second

// YTDLPEngine implements domain.MediaEngine by running the yt-dlp binary
type YTDLPEngine struct {
	binary  string
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPEngine creates a new yt-dlp backed engine. Fetch output is appended
// to a daily engine log under logsDir; an empty logsDir discards it.
func NewYTDLPEngine(config *domain.ExtractorConfig, logsDir string, logger *zap.Logger) *YTDLPEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPEngine{
		binary:  config.YTDLPBinary,
		logsDir: logsDir,
		logger:  logger,
	}
}

// ExtractMetadata runs yt-dlp in JSON dump mode and decodes the info record
func (e *YTDLPEngine) ExtractMetadata(ctx context.Context, url string, cfg domain.ExtractionConfig) (domain.RawMetadata, error) {
	args := BuildMetadataArgs(cfg, url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	e.logger.Debug("Running yt-dlp metadata extraction",
		zap.String("strategy", cfg.Name),
		zap.String("cmd", ShellEscapeCommand(e.binary, args...)))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("yt-dlp metadata extraction interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %w: %s", err, lastLine(stderr.String()))
	}

	var raw domain.RawMetadata
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("yt-dlp returned an empty info record")
	}
	return raw, nil
}

// FetchMedia downloads url with yt-dlp, redirecting its output to the engine log
func (e *YTDLPEngine) FetchMedia(ctx context.Context, url string, cfg domain.ExtractionConfig) error {
	if cfg.OutputTemplate == "" {
		return fmt.Errorf("output template not set")
	}
	args := BuildFetchArgs(cfg, url)

	engineLog, err := e.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open engine log: %w", err)
	}
	defer engineLog.Close()

	cmdLine := ShellEscapeCommand(e.binary, args...)
	writeLogHeader(engineLog, url, cmdLine)

	// Redirect both stdout and stderr to the same file (like cmd > file 2>&1)
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdout = engineLog
	cmd.Stderr = engineLog
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		writeLogFooter(engineLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("yt-dlp interrupted: %w", ctxErr)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	writeLogFooter(engineLog, true, "fetch finished")
	return nil
}

// BuildMetadataArgs returns yt-dlp arguments for a metadata-only run
func BuildMetadataArgs(cfg domain.ExtractionConfig, url string) []string {
	args := []string{"--dump-single-json", "--skip-download", "--no-playlist", "--no-warnings"}
	args = append(args, transportArgs(cfg)...)
	return append(args, url)
}

// BuildFetchArgs returns yt-dlp arguments for downloading media
func BuildFetchArgs(cfg domain.ExtractionConfig, url string) []string {
	args := []string{"--no-playlist", "--no-progress", "--newline"}
	args = append(args, transportArgs(cfg)...)
	if cfg.Format != "" {
		args = append(args, "-f", cfg.Format)
	}
	args = append(args, "-o", cfg.OutputTemplate)
	if pp := cfg.PostProcess; pp != nil {
		args = append(args, "-x", "--audio-format", pp.Codec)
		if pp.Quality != "" {
			args = append(args, "--audio-quality", pp.Quality+"K")
		}
	}
	return append(args, url)
}

func transportArgs(cfg domain.ExtractionConfig) []string {
	var args []string
	if cfg.SkipCertCheck {
		args = append(args, "--no-check-certificates")
	}
	if cfg.PreferInsecure {
		args = append(args, "--prefer-insecure")
	}
	// Sorted so the command line is stable in logs
	keys := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-header", k+":"+cfg.Headers[k])
	}
	return args
}

// openLogFile opens the engine log file for today
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if e.logsDir == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(e.logsDir, "engine-"+dateStr+".log")
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(file *os.File, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Fetch: %s ===\n", timestamp, url)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
}

func writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(file, "=== END ===\n\n")
}

// lastLine returns the last non-empty line of s, which is where yt-dlp puts its ERROR
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
