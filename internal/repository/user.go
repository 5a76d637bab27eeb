// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"bazaarhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user, profile and profile image
// data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailOrMobile(ctx context.Context, identifier string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MobileExists(ctx context.Context, mobile string) (bool, error)
	GetWithProfile(ctx context.Context, id uint) (*models.User, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	GetProfileImage(ctx context.Context, userID uint) (*models.ProfileImage, error)
	SaveProfileImage(ctx context.Context, image *models.ProfileImage) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmailOrMobile resolves a login identifier that may be either field.
func (r *userRepository) GetByEmailOrMobile(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR mobile = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) MobileExists(ctx context.Context, mobile string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("mobile = ?", mobile).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) GetWithProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("ProfileImage").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SaveProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) GetProfileImage(ctx context.Context, userID uint) (*models.ProfileImage, error) {
	var image models.ProfileImage
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// SaveProfileImage creates the row lazily on first upload and updates it
// afterwards.
func (r *userRepository) SaveProfileImage(ctx context.Context, image *models.ProfileImage) error {
	return r.db.WithContext(ctx).Save(image).Error
}
