package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents a registered account.
// The password column always holds an encoded argon2id hash, never plaintext.
// Every user owns exactly one Profile and one UserSettings record, created
// in the same transaction as the user itself.
type User struct {
	gorm.Model
	Username     string `gorm:"size:49;uniqueIndex;not null"`
	Email        string `gorm:"size:81;uniqueIndex;not null"`
	Password     string `gorm:"size:255;not null"`
	IsSuperuser  bool   `gorm:"default:false"`
	IsConfirmed  bool   `gorm:"default:false"`
	RegisteredAt time.Time
	LastLoginAt  time.Time

	Profile  Profile
	Settings UserSettings

	// Followers are the users following this user. The relation is
	// directional: a row (user_id, follower_id) means follower_id
	// observes user_id's activity.
	Followers []*User `gorm:"many2many:user_followers;joinForeignKey:UserID;joinReferences:FollowerID"`
}

// CreateUser creates a new user together with its profile and default
// settings. All three records are persisted in a single transaction so a
// user is never observable without them.
func (c *Client) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	now := time.Now()
	user := User{
		Username:     username,
		Email:        email,
		Password:     passwordHash,
		RegisteredAt: now,
		LastLoginAt:  now,
		Profile:      Profile{},
		Settings:     DefaultSettings(),
	}
	if err := c.db.WithContext(ctx).Create(&user).Error; err != nil {
		log.Error("failed to create user", "username", username, "error", err)
		return nil, err
	}
	return &user, nil
}

// CreateSuperuser creates a confirmed superuser account.
func (c *Client) CreateSuperuser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	user, err := c.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"is_superuser": true, "is_confirmed": true}
	if err := c.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		log.Error("failed to promote superuser", "username", username, "error", err)
		return nil, err
	}
	return user, nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Profile").Preload("Settings").First(&user, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Profile").Preload("Settings").Where("username = ?", username).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Profile").Preload("Settings").Where("email = ?", email).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// UpdatePassword stores a new password hash for the user.
func (c *Client) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	if err := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password", passwordHash).Error; err != nil {
		log.Error("failed to update password", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// TouchLastLogin updates the user's last login timestamp.
func (c *Client) TouchLastLogin(ctx context.Context, userID uint) error {
	if err := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("last_login_at", time.Now()).Error; err != nil {
		log.Error("failed to update last login", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// SetConfirmed marks the user's email address as confirmed.
func (c *Client) SetConfirmed(ctx context.Context, userID uint) error {
	if err := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("is_confirmed", true).Error; err != nil {
		log.Error("failed to confirm user", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// DeleteUser removes the user together with its profile, settings and all
// follow relations referencing it on either side.
func (c *Client) DeleteUser(ctx context.Context, userID uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_followers WHERE user_id = ? OR follower_id = ?", userID, userID).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&Profile{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&UserSettings{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&User{}, userID).Error
	})
	if err != nil {
		log.Error("failed to delete user", "user_id", userID, "error", err)
	}
	return err
}

// CountUsers returns the total number of users.
func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}

// LatestUser returns the most recently registered user.
func (c *Client) LatestUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Order("registered_at DESC").First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get latest user", "error", err)
		}
		return nil, err
	}
	return &user, nil
}
