package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Profile holds the free-text descriptive information of a user.
type Profile struct {
	gorm.Model
	UserID  uint   `gorm:"uniqueIndex;not null"`
	Avatar  string `gorm:"size:128"`
	School  string `gorm:"size:128"`
	Tagline string
	Bio     string `gorm:"type:text"`
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Avatar  *string
	School  *string
	Tagline *string
	Bio     *string
}

// UpdateProfile applies the non-nil fields of the update to the user's profile.
func (c *Client) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) error {
	fields := map[string]any{}
	if update.Avatar != nil {
		fields["avatar"] = *update.Avatar
	}
	if update.School != nil {
		fields["school"] = *update.School
	}
	if update.Tagline != nil {
		fields["tagline"] = *update.Tagline
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if len(fields) == 0 {
		return nil
	}

	result := c.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Updates(fields)
	if result.Error != nil {
		log.Error("failed to update profile", "user_id", userID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetProfile returns the user's profile.
func (c *Client) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var profile Profile
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get profile", "user_id", userID, "error", err)
		}
		return nil, err
	}
	return &profile, nil
}
