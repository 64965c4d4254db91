package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownValue is the placeholder for string metadata the engine did not report
const UnknownValue = "Unknown"

// VideoMetadata is the canonical, fully populated description of a resolved video.
// It is treated as immutable once created.
type VideoMetadata struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Uploader        string `json:"uploader"`
	DurationSeconds int64  `json:"duration_seconds"`
	LikeCount       int64  `json:"like_count"`
	ViewCount       int64  `json:"view_count"`
	SourceURL       string `json:"source_url"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// RawMetadata is the untyped info record returned by the extraction engine
type RawMetadata map[string]interface{}

// NormalizeMetadata converts a raw engine record into VideoMetadata.
// Missing or malformed strings become UnknownValue, missing or negative counts become 0.
func NormalizeMetadata(raw RawMetadata, sourceURL string) VideoMetadata {
	return VideoMetadata{
		ID:              stringOr(raw, "id", UnknownValue),
		Title:           stringOr(raw, "title", UnknownValue),
		Uploader:        stringOr(raw, "uploader", UnknownValue),
		DurationSeconds: count(raw, "duration"),
		LikeCount:       count(raw, "like_count"),
		ViewCount:       count(raw, "view_count"),
		SourceURL:       sourceURL,
		ThumbnailURL:    stringOr(raw, "thumbnail", ""),
	}
}

func stringOr(raw RawMetadata, key, fallback string) string {
	if val, ok := raw[key].(string); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

// count reads a non-negative integer. JSON decoding yields float64; yt-dlp
// reports duration as a float for some extractors.
func count(raw RawMetadata, key string) int64 {
	var n float64
	switch val := raw[key].(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || n < 0 {
		return 0
	}
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// FormatDuration renders seconds as MM:SS or HH:MM:SS, and UnknownValue for zero
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return UnknownValue
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatCount renders n with comma thousands separators
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
