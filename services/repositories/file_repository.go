package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	"gorm.io/gorm"
)

var ErrDownloadLimitReached = errors.New("download limit reached")

// FileRepository handles shared file records and their lockout counters
type FileRepository struct {
	BaseRepository
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *FileRepository) CreateFile(file *model.File) error {
	if file.ID == "" {
		id, _ := uuid.NewV7()
		file.ID = id.String()
	}
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now

	return ds.db.Create(file).Error
}

// GetFileByShortCode returns the file behind a share code, skipping deleted files.
func (ds *FileRepository) GetFileByShortCode(code string) (*model.File, error) {
	var file model.File
	if err := ds.db.Where("short_code = ? AND deleted = ?", code, false).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (ds *FileRepository) GetFile(id string) (*model.File, error) {
	var file model.File
	if err := ds.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// IncrementFailedAttempts bumps the counter in the database and returns the
// stored value, so concurrent failures on one file are all counted.
func (ds *FileRepository) IncrementFailedAttempts(fileID string) (int, error) {
	var file model.File
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.File{}).Where("id = ?", fileID).Updates(map[string]interface{}{
			"failed_password_attempts": gorm.Expr("failed_password_attempts + 1"),
			"updated_at":               time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// the row stays locked by the update until commit
		return tx.Select("failed_password_attempts").
			Where("id = ?", fileID).
			First(&file).Error
	})
	if err != nil {
		return 0, err
	}
	return file.FailedPasswordAttempts, nil
}

func (ds *FileRepository) ResetFailedAttempts(fileID string) error {
	return ds.db.Model(&model.File{}).Where("id = ?", fileID).Updates(map[string]interface{}{
		"failed_password_attempts": 0,
		"updated_at":               time.Now(),
	}).Error
}

// RecordDownload applies one served download to the file counters. The limit
// is checked in the same statement, so concurrent downloads cannot overshoot
// max_downloads; ErrDownloadLimitReached means nothing was counted.
func (ds *FileRepository) RecordDownload(fileID string, bytes int64, uniqueDownloaders int64, at time.Time) error {
	result := ds.db.Model(&model.File{}).
		Where("id = ? AND (max_downloads IS NULL OR download_count < max_downloads)", fileID).
		Updates(map[string]interface{}{
			"download_count":     gorm.Expr("download_count + 1"),
			"bandwidth_used":     gorm.Expr("bandwidth_used + ?", bytes),
			"unique_downloaders": uniqueDownloaders,
			"last_download_at":   at,
			"updated_at":         at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDownloadLimitReached
	}
	return nil
}

// ListFilesSince returns the owner's non-deleted files created after since.
func (ds *FileRepository) ListFilesSince(userID string, since time.Time) ([]model.File, error) {
	var files []model.File
	err := ds.db.Where("user_id = ? AND created_at > ? AND deleted = ?", userID, since, false).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (ds *FileRepository) CountActiveFiles(userID string, now time.Time) (int64, error) {
	var count int64
	err := ds.db.Model(&model.File{}).
		Where("user_id = ? AND deleted = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count, err
}

func (ds *FileRepository) CountUploadsSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := ds.db.Model(&model.File{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Count(&count).Error
	return count, err
}

func (ds *FileRepository) CountUploadsByIPSince(ipHash string, since time.Time) (int64, error) {
	var count int64
	err := ds.db.Model(&model.File{}).
		Where("upload_ip = ? AND created_at > ?", ipHash, since).
		Count(&count).Error
	return count, err
}

// ListActiveOwners returns users that uploaded inside the window, for the periodic abuse scan.
func (ds *FileRepository) ListActiveOwners(since time.Time) ([]string, error) {
	var owners []string
	err := ds.db.Model(&model.File{}).
		Where("user_id IS NOT NULL AND created_at > ?", since).
		Distinct().
		Pluck("user_id", &owners).Error
	return owners, err
}
