package infrastructure

import (
	"errors"
	"fmt"

	"github.com/yourusername/likegate/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDeliveryRepository implements DeliveryRepository using SQLite
type SQLiteDeliveryRepository struct {
	db *gorm.DB
}

// NewSQLiteDeliveryRepository creates a new SQLite repository
func NewSQLiteDeliveryRepository(dbPath string) (*SQLiteDeliveryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Delivery{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteDeliveryRepository{db: db}, nil
}

// Create creates a new delivery
func (r *SQLiteDeliveryRepository) Create(delivery *domain.Delivery) error {
	return r.db.Create(delivery).Error
}

// Update updates an existing delivery
func (r *SQLiteDeliveryRepository) Update(delivery *domain.Delivery) error {
	return r.db.Save(delivery).Error
}

// FindByID finds a delivery by ID
func (r *SQLiteDeliveryRepository) FindByID(id string) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := r.db.First(&delivery, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

// FindRecent returns the newest deliveries; an empty status matches all
func (r *SQLiteDeliveryRepository) FindRecent(status domain.DeliveryStatus, limit int) ([]*domain.Delivery, error) {
	var deliveries []*domain.Delivery
	query := r.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&deliveries).Error
	return deliveries, err
}

// GetStats returns delivery statistics
func (r *SQLiteDeliveryRepository) GetStats() (*domain.DeliveryStats, error) {
	stats := &domain.DeliveryStats{}

	if err := r.db.Model(&domain.Delivery{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.DeliveryStatus
		Count  int64
	}{}
	if err := r.db.Model(&domain.Delivery{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.DeliveryProcessing:
			stats.Processing = sc.Count
		case domain.DeliveryCompleted:
			stats.Completed = sc.Count
		case domain.DeliveryFailed:
			stats.Failed = sc.Count
		}
	}

	kindCounts := []struct {
		Kind  domain.MediaKind
		Count int64
	}{}
	if err := r.db.Model(&domain.Delivery{}).
		Select("kind, count(*) as count").
		Group("kind").
		Scan(&kindCounts).Error; err != nil {
		return nil, err
	}
	for _, kc := range kindCounts {
		switch kc.Kind {
		case domain.KindVideo:
			stats.Video = kc.Count
		case domain.KindAudio:
			stats.Audio = kc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteDeliveryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
