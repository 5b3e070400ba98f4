package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Visibility controls who may see a piece of user activity.
type Visibility string

const (
	// VisibilityAll exposes the activity to everyone, including anonymous viewers.
	VisibilityAll Visibility = "all"
	// VisibilityAuthenticated exposes the activity to signed-in viewers only.
	VisibilityAuthenticated Visibility = "authenticated"
	// VisibilityOwn exposes the activity to the owning user only.
	VisibilityOwn Visibility = "own"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityAll, VisibilityAuthenticated, VisibilityOwn:
		return true
	}
	return false
}

// Locale is a user interface language preference.
type Locale string

const (
	LocaleChinese Locale = "zh"
	LocaleEnglish Locale = "en"
)

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	return l == LocaleChinese || l == LocaleEnglish
}

// ErrInvalidSetting is returned when a settings update carries a value
// outside the closed enumerations.
var ErrInvalidSetting = errors.New("invalid setting value")

// UserSettings holds the structured preferences and visibility flags of a user.
type UserSettings struct {
	gorm.Model
	UserID         uint       `gorm:"uniqueIndex;not null"`
	OnlineStatus   Visibility `gorm:"size:16;not null"`
	TopicList      Visibility `gorm:"size:16;not null"`
	ReplyList      Visibility `gorm:"size:16;not null"`
	NotebookList   Visibility `gorm:"size:16;not null"`
	CollectionList Visibility `gorm:"size:16;not null"`
	Locale         Locale     `gorm:"size:32;not null"`
	Timezone       string     `gorm:"size:32;not null"`
}

// DefaultSettings returns the settings a freshly created user starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		OnlineStatus:   VisibilityAll,
		TopicList:      VisibilityAll,
		ReplyList:      VisibilityAll,
		NotebookList:   VisibilityOwn,
		CollectionList: VisibilityAuthenticated,
		Locale:         LocaleChinese,
		Timezone:       "UTC",
	}
}

// SettingsUpdate carries the mutable settings fields. Nil fields are left
// unchanged. Values are validated against the closed enumerations before
// anything is written.
type SettingsUpdate struct {
	OnlineStatus   *Visibility
	TopicList      *Visibility
	ReplyList      *Visibility
	NotebookList   *Visibility
	CollectionList *Visibility
	Locale         *Locale
	Timezone       *string
}

func (u SettingsUpdate) validate() error {
	for _, v := range []*Visibility{u.OnlineStatus, u.TopicList, u.ReplyList, u.NotebookList, u.CollectionList} {
		if v != nil && !v.Valid() {
			return fmt.Errorf("%w: visibility %q", ErrInvalidSetting, *v)
		}
	}
	if u.Locale != nil && !u.Locale.Valid() {
		return fmt.Errorf("%w: locale %q", ErrInvalidSetting, *u.Locale)
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q", ErrInvalidSetting, *u.Timezone)
		}
	}
	return nil
}

// UpdateSettings applies the non-nil fields of the update to the user's settings.
func (c *Client) UpdateSettings(ctx context.Context, userID uint, update SettingsUpdate) error {
	if err := update.validate(); err != nil {
		return err
	}

	fields := map[string]any{}
	if update.OnlineStatus != nil {
		fields["online_status"] = *update.OnlineStatus
	}
	if update.TopicList != nil {
		fields["topic_list"] = *update.TopicList
	}
	if update.ReplyList != nil {
		fields["reply_list"] = *update.ReplyList
	}
	if update.NotebookList != nil {
		fields["notebook_list"] = *update.NotebookList
	}
	if update.CollectionList != nil {
		fields["collection_list"] = *update.CollectionList
	}
	if update.Locale != nil {
		fields["locale"] = *update.Locale
	}
	if update.Timezone != nil {
		fields["timezone"] = *update.Timezone
	}
	if len(fields) == 0 {
		return nil
	}

	result := c.db.WithContext(ctx).Model(&UserSettings{}).Where("user_id = ?", userID).Updates(fields)
	if result.Error != nil {
		log.Error("failed to update settings", "user_id", userID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetSettings returns the user's settings.
func (c *Client) GetSettings(ctx context.Context, userID uint) (*UserSettings, error) {
	var settings UserSettings
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get settings", "user_id", userID, "error", err)
		}
		return nil, err
	}
	return &settings, nil
}
