package model

import "time"

type File struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	ShortCode string  `json:"short_code" gorm:"uniqueIndex;not null;size:32"`
	UserID    *string `json:"user_id,omitempty" gorm:"index"`
	FileName  string  `json:"file_name" gorm:"not null"`
	ObjectKey string  `json:"-" gorm:"not null"`
	MimeType  string  `json:"mime_type"`
	FileSize  int64   `json:"file_size" gorm:"not null"`

	PasswordHash           *string `json:"-"`
	MaxPasswordAttempts    *int    `json:"max_password_attempts,omitempty" gorm:"default:10"`
	FailedPasswordAttempts int     `json:"failed_password_attempts" gorm:"not null;default:0"`

	ExpiresAt         *time.Time `json:"expires_at,omitempty" gorm:"index"`
	MaxDownloads      *int       `json:"max_downloads,omitempty"`
	DownloadCount     int        `json:"download_count" gorm:"not null;default:0"`
	BandwidthUsed     int64      `json:"bandwidth_used" gorm:"not null;default:0"`
	UniqueDownloaders int        `json:"unique_downloaders" gorm:"not null;default:0"`
	LastDownloadAt    *time.Time `json:"last_download_at,omitempty"`

	// UploadIP holds the keyed hash of the uploader address, never the raw value.
	UploadIP string `json:"-" gorm:"index;size:64"`
	Deleted  bool   `json:"deleted" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (f *File) IsPasswordProtected() bool {
	return f.PasswordHash != nil && *f.PasswordHash != ""
}

// IsLocked reports whether password access is permanently closed for this file.
func (f *File) IsLocked() bool {
	return f.MaxPasswordAttempts != nil && f.FailedPasswordAttempts >= *f.MaxPasswordAttempts
}

func (f *File) IsExpired(now time.Time) bool {
	return f.ExpiresAt != nil && !now.Before(*f.ExpiresAt)
}

func (f *File) DownloadsExhausted() bool {
	return f.MaxDownloads != nil && f.DownloadCount >= *f.MaxDownloads
}

type DownloadLog struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	FileID      string    `json:"file_id" gorm:"not null;index"`
	IPHash      string    `json:"ip_hash" gorm:"not null;size:64"`
	UserAgent   string    `json:"user_agent" gorm:"size:512"`
	BytesServed int64     `json:"bytes_served" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;index"`
}
