package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	"gorm.io/gorm"
)

type DownloadRepository struct {
	BaseRepository
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *DownloadRepository) CreateDownloadLog(entry *model.DownloadLog) error {
	if entry.ID == "" {
		id, _ := uuid.NewV7()
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return ds.db.Create(entry).Error
}

func (ds *DownloadRepository) ListDownloads(fileID string, limit int) ([]model.DownloadLog, error) {
	var entries []model.DownloadLog
	err := ds.db.Where("file_id = ?", fileID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
