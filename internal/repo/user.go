package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/stepup/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// IsActiveStaff reports false for unknown, inactive or non-staff users.
func (r *GormRepo) IsActiveStaff(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_staff = ? AND is_active = ?", id, true, true).
		Count(&n).Error
	return n > 0, err
}

// FindUserByLogin matches the username exactly or the email case-insensitively.
func (r *GormRepo) FindUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).
		Where("username = ? OR LOWER(email) = ?", identifier, strings.ToLower(identifier)).
		Order("id ASC").
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var n int64
	if err = r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return
	}
	usernameTaken = n > 0
	if err = r.DB.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&n).Error; err != nil {
		return
	}
	emailTaken = n > 0
	return
}

func (r *GormRepo) ActivateUser(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", true).Error
}

func (r *GormRepo) CreateCheckoutDetail(ctx context.Context, d *models.CheckoutDetail) error {
	return r.DB.WithContext(ctx).Create(d).Error
}
