package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// DatabaseTestSuite exercises the persistence layer against a throwaway
// sqlite database per test.
type DatabaseTestSuite struct {
	suite.Suite
	client *Client
	ctx    context.Context
}

func (s *DatabaseTestSuite) SetupTest() {
	client, err := New(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.client = client
	s.ctx = context.Background()
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.client != nil {
		s.Require().NoError(s.client.Close())
	}
}

func (s *DatabaseTestSuite) TestCreateUserProvisionsProfileAndSettings() {
	user, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
	s.NotZero(user.ID)

	// Exactly one profile and one settings record, linked by foreign key,
	// must exist as soon as CreateUser returns.
	var profiles []Profile
	s.Require().NoError(s.client.db.Where("user_id = ?", user.ID).Find(&profiles).Error)
	s.Len(profiles, 1)

	var settings []UserSettings
	s.Require().NoError(s.client.db.Where("user_id = ?", user.ID).Find(&settings).Error)
	s.Require().Len(settings, 1)

	s.Equal(VisibilityAll, settings[0].OnlineStatus)
	s.Equal(VisibilityAll, settings[0].TopicList)
	s.Equal(VisibilityAll, settings[0].ReplyList)
	s.Equal(VisibilityOwn, settings[0].NotebookList)
	s.Equal(VisibilityAuthenticated, settings[0].CollectionList)
	s.Equal(LocaleChinese, settings[0].Locale)
	s.Equal("UTC", settings[0].Timezone)
}

func (s *DatabaseTestSuite) TestUsernameAndEmailUnique() {
	_, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	_, err = s.client.CreateUser(s.ctx, "alice", "other@example.com", "hash")
	s.Error(err)

	_, err = s.client.CreateUser(s.ctx, "bob", "alice@example.com", "hash")
	s.Error(err)
}

func (s *DatabaseTestSuite) TestGetUserPreloadsRecords() {
	created, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	user, err := s.client.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, user.ID)
	s.Equal(user.ID, user.Profile.UserID)
	s.Equal(user.ID, user.Settings.UserID)

	byEmail, err := s.client.GetUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)

	_, err = s.client.GetUserByUsername(s.ctx, "nobody")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestFollowIsDirectional() {
	a, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
	b, err := s.client.CreateUser(s.ctx, "bob", "bob@example.com", "hash")
	s.Require().NoError(err)

	// alice follows bob
	s.Require().NoError(s.client.Follow(s.ctx, b.ID, a.ID))

	followed, err := s.client.IsFollowedBy(s.ctx, b.ID, a.ID)
	s.Require().NoError(err)
	s.True(followed)

	reverse, err := s.client.IsFollowedBy(s.ctx, a.ID, b.ID)
	s.Require().NoError(err)
	s.False(reverse)

	count, err := s.client.FollowerCount(s.ctx, b.ID)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	followers, err := s.client.Followers(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().Len(followers, 1)
	s.Equal("alice", followers[0].Username)

	s.Require().NoError(s.client.Unfollow(s.ctx, b.ID, a.ID))
	followed, err = s.client.IsFollowedBy(s.ctx, b.ID, a.ID)
	s.Require().NoError(err)
	s.False(followed)
}

func (s *DatabaseTestSuite) TestDeleteUserCascades() {
	a, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
	b, err := s.client.CreateUser(s.ctx, "bob", "bob@example.com", "hash")
	s.Require().NoError(err)

	s.Require().NoError(s.client.Follow(s.ctx, b.ID, a.ID))
	s.Require().NoError(s.client.Follow(s.ctx, a.ID, b.ID))

	s.Require().NoError(s.client.DeleteUser(s.ctx, a.ID))

	_, err = s.client.GetUserByID(s.ctx, a.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	var profiles []Profile
	s.Require().NoError(s.client.db.Unscoped().Where("user_id = ?", a.ID).Find(&profiles).Error)
	s.Empty(profiles)

	var settings []UserSettings
	s.Require().NoError(s.client.db.Unscoped().Where("user_id = ?", a.ID).Find(&settings).Error)
	s.Empty(settings)

	// Join rows referencing the deleted user on either side are gone.
	var count int64
	s.Require().NoError(s.client.db.Table("user_followers").
		Where("user_id = ? OR follower_id = ?", a.ID, a.ID).
		Count(&count).Error)
	s.Zero(count)

	// The surviving user is untouched.
	_, err = s.client.GetUserByID(s.ctx, b.ID)
	s.NoError(err)
}

func (s *DatabaseTestSuite) TestUpdateProfile() {
	user, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	school := "Forest Academy"
	bio := "I write about moss."
	s.Require().NoError(s.client.UpdateProfile(s.ctx, user.ID, ProfileUpdate{
		School: &school,
		Bio:    &bio,
	}))

	profile, err := s.client.GetProfile(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(school, profile.School)
	s.Equal(bio, profile.Bio)
	s.Empty(profile.Avatar)

	err = s.client.UpdateProfile(s.ctx, 9999, ProfileUpdate{School: &school})
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestUpdateSettingsValidatesEnums() {
	user, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	own := VisibilityOwn
	english := LocaleEnglish
	tz := "Europe/Zurich"
	s.Require().NoError(s.client.UpdateSettings(s.ctx, user.ID, SettingsUpdate{
		OnlineStatus: &own,
		Locale:       &english,
		Timezone:     &tz,
	}))

	settings, err := s.client.GetSettings(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(VisibilityOwn, settings.OnlineStatus)
	s.Equal(LocaleEnglish, settings.Locale)
	s.Equal(tz, settings.Timezone)

	bogus := Visibility("everyone")
	err = s.client.UpdateSettings(s.ctx, user.ID, SettingsUpdate{TopicList: &bogus})
	s.ErrorIs(err, ErrInvalidSetting)

	badLocale := Locale("fr")
	err = s.client.UpdateSettings(s.ctx, user.ID, SettingsUpdate{Locale: &badLocale})
	s.ErrorIs(err, ErrInvalidSetting)

	badTZ := "Mars/Olympus"
	err = s.client.UpdateSettings(s.ctx, user.ID, SettingsUpdate{Timezone: &badTZ})
	s.ErrorIs(err, ErrInvalidSetting)

	// Unchanged fields keep their values.
	settings, err = s.client.GetSettings(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(VisibilityAll, settings.TopicList)
}

func (s *DatabaseTestSuite) TestPasswordAndLoginUpdates() {
	user, err := s.client.CreateUser(s.ctx, "alice", "alice@example.com", "hash-1")
	s.Require().NoError(err)

	s.Require().NoError(s.client.UpdatePassword(s.ctx, user.ID, "hash-2"))
	s.Require().NoError(s.client.TouchLastLogin(s.ctx, user.ID))
	s.Require().NoError(s.client.SetConfirmed(s.ctx, user.ID))

	reloaded, err := s.client.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("hash-2", reloaded.Password)
	s.True(reloaded.IsConfirmed)
	s.False(reloaded.LastLoginAt.Before(user.LastLoginAt))
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}
