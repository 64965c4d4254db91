package domain

import "errors"

// ErrDeliveryNotFound is returned when a ledger entry does not exist
var ErrDeliveryNotFound = errors.New("delivery not found")

// DeliveryRepository defines the interface for the delivery audit ledger
type DeliveryRepository interface {
	// Create creates a new delivery
	Create(delivery *Delivery) error

	// Update updates an existing delivery
	Update(delivery *Delivery) error

	// FindByID finds a delivery by ID
	FindByID(id string) (*Delivery, error)

	// FindRecent returns the newest deliveries, optionally filtered by status
	FindRecent(status DeliveryStatus, limit int) ([]*Delivery, error)

	// GetStats returns delivery statistics
	GetStats() (*DeliveryStats, error)
}

// DeliveryStats represents delivery statistics
type DeliveryStats struct {
	Total      int64 `json:"total"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Video      int64 `json:"video"`
	Audio      int64 `json:"audio"`
}
