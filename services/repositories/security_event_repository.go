package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	"gorm.io/gorm"
)

// SecurityEventRepository stores the audit trail of violations, bans and locks
type SecurityEventRepository struct {
	BaseRepository
}

func NewSecurityEventRepository(db *gorm.DB) *SecurityEventRepository {
	return &SecurityEventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *SecurityEventRepository) CreateSecurityEvent(event *model.SecurityEvent) error {
	if event.ID == "" {
		id, _ := uuid.NewV7()
		event.ID = id.String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return ds.db.Create(event).Error
}

func (ds *SecurityEventRepository) ListSecurityEvents(identifier string, since time.Time, limit int) ([]model.SecurityEvent, error) {
	var events []model.SecurityEvent
	query := ds.db.Where("created_at > ?", since)
	if identifier != "" {
		query = query.Where("identifier = ?", identifier)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
