package domain

import "time"

// Config represents the application configuration
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gate      GateConfig      `mapstructure:"gate"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Download  DownloadConfig  `mapstructure:"download"`
	Session   SessionConfig   `mapstructure:"session"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TelegramConfig contains bot transport configuration
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // long-poll timeout in seconds
	Debug       bool   `mapstructure:"debug"`
}

// GateConfig contains the popularity gate configuration
type GateConfig struct {
	LikesThreshold int `mapstructure:"likes_threshold"`
}

// ExtractorConfig contains yt-dlp and transcoder settings
type ExtractorConfig struct {
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	FFmpegBinary   string        `mapstructure:"ffmpeg_binary"`
	UserAgent      string        `mapstructure:"user_agent"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	ScratchRoot     string        `mapstructure:"scratch_root"` // empty means os.TempDir()
	LogsDir         string        `mapstructure:"logs_dir"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConcurrentLimit int           `mapstructure:"concurrent_limit"`
}

// SessionConfig contains conversation session settings
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // zero disables expiry
}

// StoreConfig contains the delivery ledger database settings
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// ServerConfig contains the operator HTTP server configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultUserAgent is sent by the browser-headers extraction strategy
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		Gate: GateConfig{
			LikesThreshold: 10,
		},
		Extractor: ExtractorConfig{
			YTDLPBinary:    "yt-dlp",
			FFmpegBinary:   "ffmpeg",
			UserAgent:      DefaultUserAgent,
			AttemptTimeout: 45 * time.Second,
		},
		Download: DownloadConfig{
			ScratchRoot:     "",
			LogsDir:         "$HOME/.likegate/logs",
			Timeout:         15 * time.Minute,
			ConcurrentLimit: 2,
		},
		Session: SessionConfig{
			TTL: 30 * time.Minute,
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/.likegate/deliveries.db",
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
