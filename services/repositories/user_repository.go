package repositories

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	"gorm.io/gorm"
)

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *UserRepository) CreateUser(user *model.User) error {
	if user.ID == "" {
		id, _ := uuid.NewV7()
		user.ID = id.String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	return ds.db.Create(user).Error
}

func (ds *UserRepository) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByLogin matches an email case-insensitively or a username exactly.
func (ds *UserRepository) GetUserByLogin(login string) (*model.User, error) {
	var user model.User
	login = strings.TrimSpace(login)
	err := ds.db.Where("email = ? OR username = ?", strings.ToLower(login), login).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *UserRepository) UpdateLastLogin(userID string) error {
	now := time.Now()
	return ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": &now,
		"updated_at": now,
	}).Error
}
