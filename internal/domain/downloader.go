package domain

import "context"

// PostProcessor asks the engine to transcode the fetched stream
type PostProcessor struct {
	Codec   string // e.g. "mp3"
	Quality string // kbps, e.g. "192"
}

// ExtractionConfig is one set of engine options. It is a plain value so
// strategy lists can be declared and compared directly.
type ExtractionConfig struct {
	Name           string
	SkipCertCheck  bool
	Headers        map[string]string
	PreferInsecure bool
	Format         string
	OutputTemplate string
	PostProcess    *PostProcessor
}

// ExtractionAttempt records one strategy's outcome during resolution
type ExtractionAttempt struct {
	Strategy string
	Err      error
}

// MediaEngine is the external metadata-extraction and media-fetch capability
type MediaEngine interface {
	// ExtractMetadata returns the raw info record for url without downloading media
	ExtractMetadata(ctx context.Context, url string, cfg ExtractionConfig) (RawMetadata, error)

	// FetchMedia downloads url using cfg.Format, cfg.OutputTemplate and cfg.PostProcess
	FetchMedia(ctx context.Context, url string, cfg ExtractionConfig) error
}

// ToolProbe reports whether an external executable is resolvable on the host
type ToolProbe interface {
	Available() (path string, ok bool)
}
