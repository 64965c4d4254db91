package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMetadata_Full(t *testing.T) {
	raw := RawMetadata{
		"id":         "abc123",
		"title":      "A Title",
		"uploader":   "Someone",
		"duration":   float64(213),
		"like_count": float64(1200),
		"view_count": float64(99000),
		"thumbnail":  "https://i.ytimg.com/vi/abc123/hq.jpg",
	}

	meta := NormalizeMetadata(raw, "https://youtu.be/abc123")

	assert.Equal(t, VideoMetadata{
		ID:              "abc123",
		Title:           "A Title",
		Uploader:        "Someone",
		DurationSeconds: 213,
		LikeCount:       1200,
		ViewCount:       99000,
		SourceURL:       "https://youtu.be/abc123",
		ThumbnailURL:    "https://i.ytimg.com/vi/abc123/hq.jpg",
	}, meta)
}

func TestNormalizeMetadata_MissingFields(t *testing.T) {
	raw := RawMetadata{"title": "Only a title"}

	meta := NormalizeMetadata(raw, "https://youtu.be/x")

	assert.Equal(t, int64(0), meta.LikeCount)
	assert.Equal(t, UnknownValue, meta.Uploader)
	assert.Equal(t, int64(0), meta.DurationSeconds)
	assert.Equal(t, UnknownValue, meta.ID)
	assert.Equal(t, "Only a title", meta.Title)
	assert.Empty(t, meta.ThumbnailURL)
}

func TestNormalizeMetadata_NullsAndBadTypes(t *testing.T) {
	raw := RawMetadata{
		"title":      nil,
		"uploader":   42,
		"like_count": nil,
		"view_count": "12",
		"duration":   float64(-5),
	}

	meta := NormalizeMetadata(raw, "")

	assert.Equal(t, UnknownValue, meta.Title)
	assert.Equal(t, UnknownValue, meta.Uploader)
	assert.Equal(t, int64(0), meta.LikeCount)
	assert.Equal(t, int64(12), meta.ViewCount)
	assert.Equal(t, int64(0), meta.DurationSeconds)
}

func TestNormalizeMetadata_FractionalDuration(t *testing.T) {
	meta := NormalizeMetadata(RawMetadata{"duration": 61.8}, "")
	assert.Equal(t, int64(61), meta.DurationSeconds)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{0, "Unknown"},
		{5, "00:05"},
		{213, "03:33"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "-12,000", FormatCount(-12000))
}

func TestResolutionError(t *testing.T) {
	err := &ResolutionError{
		URL: "https://youtu.be/x",
		Attempts: []ExtractionAttempt{
			{Strategy: "plain", Err: errors.New("boom")},
			{Strategy: "no-cert-check", Err: errors.New("boom")},
		},
	}

	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Contains(t, err.Error(), "plain, no-cert-check")
	assert.NotContains(t, err.Error(), "boom")
}

func TestBelowThresholdError(t *testing.T) {
	var err error = &BelowThresholdError{Likes: 3, Required: 10}

	assert.ErrorIs(t, err, ErrBelowThreshold)
	assert.False(t, errors.Is(err, ErrResolutionFailed))
}
