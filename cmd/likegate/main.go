package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/likegate/api"
	"github.com/yourusername/likegate/internal/app"
	"github.com/yourusername/likegate/internal/domain"
	"github.com/yourusername/likegate/internal/infrastructure"
	"github.com/yourusername/likegate/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "likegate",
		Short: "Likegate - Telegram bot that delivers popular YouTube videos",
		Long: `A Telegram bot that accepts YouTube links, checks the like count against a
threshold and sends the video as MP4 or its audio track as MP3.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBot(ctx context.Context) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync(log)

	// Delivery lifecycle events also go to dated files under logs_dir
	downloadsLog := log.Named("downloads")
	if config.Download.LogsDir != "" {
		auditLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Download.LogsDir,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize delivery log: %w", err)
		}
		defer auditLog.Close()
		downloadsLog = auditLog.Tee(downloadsLog, logger.CategoryDeliveries)
	}

	log.Info("Starting likegate",
		zap.Int("likes_threshold", config.Gate.LikesThreshold),
		zap.Int("concurrent_limit", config.Download.ConcurrentLimit),
		zap.Bool("http_enabled", config.Server.Enabled))

	if err := createDirectories(config); err != nil {
		return err
	}

	// Initialize repository
	repo, err := infrastructure.NewSQLiteDeliveryRepository(config.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	// Media pipeline
	if _, ok := infrastructure.NewExecProbe(config.Extractor.YTDLPBinary).Available(); !ok {
		log.Warn("yt-dlp not found, every resolution will fail", zap.String("binary", config.Extractor.YTDLPBinary))
	}
	transcoder := infrastructure.NewExecProbe(config.Extractor.FFmpegBinary)
	if path, ok := transcoder.Available(); ok {
		log.Info("Transcoder found, audio will be converted to mp3", zap.String("path", path))
	} else {
		log.Info("Transcoder not found, audio keeps its native container")
	}

	engine := infrastructure.NewYTDLPEngine(&config.Extractor, config.Download.LogsDir, log.Named("ytdlp"))
	resolver := app.NewMetadataResolver(
		engine,
		app.DefaultStrategies(config.Extractor.UserAgent),
		config.Extractor.AttemptTimeout,
		log.Named("resolver"),
	)
	orchestrator := app.NewDownloadOrchestrator(engine, transcoder, log.Named("orchestrator"))
	downloadMgr := app.NewDownloadManager(
		orchestrator,
		repo,
		&config.Download,
		downloadsLog,
	)
	sessions := app.NewMemorySessionStore(config.Session.TTL)

	// Telegram transport
	bot, err := infrastructure.NewTelegramBot(&config.Telegram, log.Named("telegram"))
	if err != nil {
		return err
	}
	conversation := app.NewConversationController(
		bot.Channel(),
		sessions,
		resolver,
		downloadMgr,
		config.Gate.LikesThreshold,
		log.Named("conversation"),
	)

	go pruneSessions(ctx, sessions, config.Session.TTL, log)

	var server *http.Server
	if config.Server.Enabled {
		router := api.SetupRouter(bot, downloadMgr, repo, log.Named("http"))
		addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
		server = &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// Start server in goroutine
		go func() {
			log.Info("HTTP server listening", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	runErr := bot.Run(ctx, conversation)

	log.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	// In-flight downloads get the grace period; the rest are aborted and reported
	if err := downloadMgr.Shutdown(shutdownCtx); err != nil {
		log.Warn("Downloads aborted at shutdown", zap.Error(err))
	}

	log.Info("Likegate exited")
	return runErr
}

// pruneSessions drops expired selections so abandoned chats do not accumulate
func pruneSessions(ctx context.Context, sessions *app.MemorySessionStore, ttl time.Duration, log *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(); n > 0 {
				log.Debug("Pruned expired sessions", zap.Int("removed", n))
			}
		}
	}
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.ScratchRoot,
		filepath.Dir(config.Store.DatabasePath),
	}

	for _, dir := range dirs {
		// Skip empty paths (optional paths not configured)
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
