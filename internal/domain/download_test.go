package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRequest(kind MediaKind) DownloadRequest {
	return DownloadRequest{
		Metadata: VideoMetadata{
			ID:        "dQw4w9WgXcQ",
			Title:     "Never Gonna Give You Up",
			Uploader:  "Rick Astley",
			LikeCount: 1500,
			SourceURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		Kind: kind,
	}
}

func TestNewDelivery(t *testing.T) {
	delivery := NewDelivery(SessionID(42), testRequest(KindAudio))

	assert.NotEmpty(t, delivery.ID)
	assert.Equal(t, int64(42), delivery.SessionID)
	assert.Equal(t, "dQw4w9WgXcQ", delivery.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", delivery.URL)
	assert.Equal(t, KindAudio, delivery.Kind)
	assert.Equal(t, DeliveryProcessing, delivery.Status)
	assert.Equal(t, int64(1500), delivery.LikeCount)
	assert.False(t, delivery.IsTerminal())
}

func TestDelivery_MarkCompleted(t *testing.T) {
	delivery := NewDelivery(1, testRequest(KindAudio))

	delivery.MarkCompleted("Never Gonna Give You Up.mp3", true)

	assert.Equal(t, DeliveryCompleted, delivery.Status)
	assert.Equal(t, "Never Gonna Give You Up.mp3", delivery.FileName)
	assert.True(t, delivery.Transcoded)
	assert.NotNil(t, delivery.CompletedAt)
	assert.True(t, delivery.IsTerminal())
}

func TestDelivery_MarkFailed(t *testing.T) {
	delivery := NewDelivery(1, testRequest(KindVideo))

	delivery.MarkFailed(errors.New("yt-dlp failed"))

	assert.Equal(t, DeliveryFailed, delivery.Status)
	assert.Equal(t, "yt-dlp failed", delivery.ErrorMessage)
	assert.True(t, delivery.IsTerminal())
}

func TestMediaKind_Label(t *testing.T) {
	assert.Equal(t, "MP4", KindVideo.Label())
	assert.Equal(t, "MP3", KindAudio.Label())
}

func TestValidateKind(t *testing.T) {
	assert.True(t, ValidateKind(KindVideo))
	assert.True(t, ValidateKind(KindAudio))
	assert.False(t, ValidateKind("gif"))
}

func TestFailedDownload(t *testing.T) {
	result := FailedDownload(ErrDownloadFailed)

	assert.False(t, result.Success)
	assert.Empty(t, result.FilePath)
	assert.ErrorIs(t, result.Err, ErrDownloadFailed)
}
