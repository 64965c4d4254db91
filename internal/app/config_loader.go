package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/likegate/internal/domain"
)

// legacyEnv maps config keys to the bare environment variables operators
// already use. The prefixed LIKEGATE_* form takes precedence.
var legacyEnv = map[string]string{
	"telegram.token":       "BOT_TOKEN",
	"telegram.debug":       "DEBUG",
	"gate.likes_threshold": "LIKES_THRESHOLD",
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.likegate")
		v.AddConfigPath("/etc/likegate")
	}

	// Read environment variables
	v.SetEnvPrefix("LIKEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, config)
	for key, env := range legacyEnv {
		prefixed := "LIKEGATE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Telegram.Debug {
		config.Logging.Level = "debug"
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("telegram.token", config.Telegram.Token)
	v.SetDefault("telegram.poll_timeout", config.Telegram.PollTimeout)
	v.SetDefault("telegram.debug", config.Telegram.Debug)

	v.SetDefault("gate.likes_threshold", config.Gate.LikesThreshold)

	v.SetDefault("extractor.ytdlp_binary", config.Extractor.YTDLPBinary)
	v.SetDefault("extractor.ffmpeg_binary", config.Extractor.FFmpegBinary)
	v.SetDefault("extractor.user_agent", config.Extractor.UserAgent)
	v.SetDefault("extractor.attempt_timeout", config.Extractor.AttemptTimeout)

	v.SetDefault("download.scratch_root", config.Download.ScratchRoot)
	v.SetDefault("download.logs_dir", config.Download.LogsDir)
	v.SetDefault("download.timeout", config.Download.Timeout)
	v.SetDefault("download.concurrent_limit", config.Download.ConcurrentLimit)

	v.SetDefault("session.ttl", config.Session.TTL)

	v.SetDefault("store.database_path", config.Store.DatabasePath)

	v.SetDefault("server.enabled", config.Server.Enabled)
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)

	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.ScratchRoot = expandPath(config.Download.ScratchRoot)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// Replace $HOME before ExpandEnv so an unset HOME still resolves
	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if strings.TrimSpace(config.Telegram.Token) == "" {
		return fmt.Errorf("telegram bot token not configured (set BOT_TOKEN)")
	}

	if config.Telegram.PollTimeout < 0 {
		return fmt.Errorf("poll timeout cannot be negative")
	}

	if config.Gate.LikesThreshold < 0 {
		return fmt.Errorf("likes threshold cannot be negative")
	}

	if config.Extractor.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Extractor.AttemptTimeout <= 0 {
		return fmt.Errorf("extraction attempt timeout must be positive")
	}

	if config.Download.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Download.Timeout < 0 {
		return fmt.Errorf("download timeout cannot be negative")
	}

	if config.Session.TTL < 0 {
		return fmt.Errorf("session ttl cannot be negative")
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("delivery database path not configured")
	}

	if config.Server.Enabled && (config.Server.Port < 1 || config.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
