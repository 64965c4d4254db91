package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaKind is the rendition a user asked for
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// Label returns the user-facing format name
func (k MediaKind) Label() string {
	if k == KindAudio {
		return "MP3"
	}
	return "MP4"
}

// ValidateKind checks if a media kind is valid
func ValidateKind(kind MediaKind) bool {
	return kind == KindVideo || kind == KindAudio
}

// DownloadRequest is created when the user picks a format and consumed once
type DownloadRequest struct {
	Metadata VideoMetadata
	Kind     MediaKind
}

// DownloadResult represents the result of a download operation.
// Success == false implies FilePath == "".
type DownloadResult struct {
	Success    bool
	FilePath   string
	Transcoded bool
	Err        error
}

// FailedDownload builds a failure result carrying its cause
func FailedDownload(err error) DownloadResult {
	return DownloadResult{Err: err}
}

// DeliveryStatus represents the outcome of a delivery attempt
type DeliveryStatus string

const (
	DeliveryProcessing DeliveryStatus = "processing"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryFailed     DeliveryStatus = "failed"
)

// Delivery is an audit ledger entry for one download-and-send attempt
type Delivery struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	SessionID    int64          `json:"session_id" gorm:"index"`
	VideoID      string         `json:"video_id" gorm:"index"`
	Title        string         `json:"title"`
	URL          string         `json:"url" gorm:"not null"`
	Kind         MediaKind      `json:"kind" gorm:"not null"`
	Status       DeliveryStatus `json:"status" gorm:"not null;index"`
	LikeCount    int64          `json:"like_count"`
	Transcoded   bool           `json:"transcoded"`
	FileName     string         `json:"file_name,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewDelivery creates a ledger entry for a request about to be processed
func NewDelivery(sid SessionID, req DownloadRequest) *Delivery {
	now := time.Now()
	return &Delivery{
		ID:        uuid.New().String(),
		SessionID: int64(sid),
		VideoID:   req.Metadata.ID,
		Title:     req.Metadata.Title,
		URL:       req.Metadata.SourceURL,
		Kind:      req.Kind,
		Status:    DeliveryProcessing,
		LikeCount: req.Metadata.LikeCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkCompleted marks the delivery as completed
func (d *Delivery) MarkCompleted(fileName string, transcoded bool) {
	d.Status = DeliveryCompleted
	d.FileName = fileName
	d.Transcoded = transcoded
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the delivery as failed
func (d *Delivery) MarkFailed(err error) {
	d.Status = DeliveryFailed
	if err != nil {
		d.ErrorMessage = err.Error()
	}
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// IsTerminal checks if the delivery is in a terminal state
func (d *Delivery) IsTerminal() bool {
	return d.Status == DeliveryCompleted || d.Status == DeliveryFailed
}
