// Package user implements the account-level operations of the forum:
// registration, authentication, confirmation and auth tokens, the follow
// graph, online-status visibility and activity counters.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/counter"
	"github.com/fernwood/fernwood/internal/database"
	"github.com/fernwood/fernwood/internal/gravatar"
	"github.com/fernwood/fernwood/internal/notify/email"
	"github.com/fernwood/fernwood/internal/online"
	"github.com/fernwood/fernwood/internal/password"
	"github.com/fernwood/fernwood/internal/token"
	"github.com/fernwood/fernwood/internal/visibility"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned when the username or password is
	// wrong. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenInvalid is returned for any failed token verification: bad
	// signature, expiry, or no matching account. Callers cannot tell the
	// cases apart; the details are logged.
	ErrTokenInvalid = errors.New("token verification failed")
)

// Service bundles the collaborators of the user component.
type Service struct {
	db       *database.Client
	tokens   *token.Service
	mailer   *email.Mailer
	registry online.Registry
	counters *counter.Client
	gravatar *config.GravatarConfig
}

// NewService creates a user service.
func NewService(
	db *database.Client,
	tokens *token.Service,
	mailer *email.Mailer,
	registry online.Registry,
	counters *counter.Client,
	gravatarCfg *config.GravatarConfig,
) *Service {
	return &Service{
		db:       db,
		tokens:   tokens,
		mailer:   mailer,
		registry: registry,
		counters: counters,
		gravatar: gravatarCfg,
	}
}

// Register creates a new account with its profile and settings and queues
// a confirmation email. The account is created even if the email cannot be
// queued; delivery is best effort.
func (s *Service) Register(ctx context.Context, username, emailAddr, rawPassword string) (*database.User, error) {
	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, username, emailAddr, hash)
	if err != nil {
		return nil, err
	}

	tok := s.tokens.IssueEmailToken(user.Email)
	if err := s.SendEmail(ctx, user, "Confirm your Fernwood account", nil,
		fmt.Sprintf("Welcome to Fernwood, %s!\n\nYour confirmation token:\n\n%s\n", user.Username, tok), false); err != nil {
		log.Warn("failed to queue confirmation email", "username", username, "error", err)
	}

	return user, nil
}

// Authenticate verifies the credentials and updates the last login
// timestamp on success.
func (s *Service) Authenticate(ctx context.Context, username, rawPassword string) (*database.User, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := password.Verify(rawPassword, user.Password)
	if err != nil {
		log.Error("failed to verify password", "username", username, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := s.db.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword hashes and stores a new password for the user.
func (s *Service) SetPassword(ctx context.Context, userID uint, rawPassword string) error {
	hash, err := password.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.UpdatePassword(ctx, userID, hash)
}

// CheckPassword verifies a raw password against the user's stored hash.
func (s *Service) CheckPassword(user *database.User, rawPassword string) bool {
	ok, err := password.Verify(rawPassword, user.Password)
	if err != nil {
		log.Error("failed to verify password", "username", user.Username, "error", err)
		return false
	}
	return ok
}

// IssueEmailToken signs the user's email address for the confirmation flow.
func (s *Service) IssueEmailToken(user *database.User) string {
	return s.tokens.IssueEmailToken(user.Email)
}

// ConfirmEmail verifies a confirmation token and marks the matching
// account as confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, tok string) (*database.User, error) {
	emailAddr, err := s.tokens.VerifyEmailToken(tok, 0)
	if err != nil {
		log.Debug("email token rejected", "error", err)
		return nil, ErrTokenInvalid
	}

	user, err := s.db.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Debug("email token for unknown account", "email", emailAddr)
		return nil, ErrTokenInvalid
	}

	if err := s.db.SetConfirmed(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsConfirmed = true
	return user, nil
}

// IssueAuthToken signs the user's username for the generic auth flow.
func (s *Service) IssueAuthToken(user *database.User) string {
	return s.tokens.IssueAuthToken(user.Username)
}

// VerifyAuthToken verifies an auth token and returns the matching account.
func (s *Service) VerifyAuthToken(ctx context.Context, tok string) (*database.User, error) {
	username, err := s.tokens.VerifyAuthToken(tok, 0)
	if err != nil {
		log.Debug("auth token rejected", "error", err)
		return nil, ErrTokenInvalid
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Debug("auth token for unknown account", "username", username)
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// SendEmail queues mail for the user. Recipients default to the user's own
// address.
func (s *Service) SendEmail(ctx context.Context, user *database.User, subject string, recipients []string, body string, html bool) error {
	if len(recipients) == 0 {
		recipients = []string{user.Email}
	}
	return s.mailer.Enqueue(email.Message{
		Subject:    subject,
		Recipients: recipients,
		Body:       body,
		HTML:       html,
	})
}

// Follow records that follower observes the subject's activity.
func (s *Service) Follow(ctx context.Context, subjectID, followerID uint) error {
	return s.db.Follow(ctx, subjectID, followerID)
}

// Unfollow removes the follow relation.
func (s *Service) Unfollow(ctx context.Context, subjectID, followerID uint) error {
	return s.db.Unfollow(ctx, subjectID, followerID)
}

// IsFollowed reports whether follower follows the subject.
func (s *Service) IsFollowed(ctx context.Context, subjectID, followerID uint) (bool, error) {
	return s.db.IsFollowedBy(ctx, subjectID, followerID)
}

// MarkOnline records activity for the user in the online registry.
func (s *Service) MarkOnline(ctx context.Context, user *database.User) error {
	return s.registry.MarkOnline(ctx, user.Username)
}

// MarkOffline removes the user from the online registry.
func (s *Service) MarkOffline(ctx context.Context, user *database.User) error {
	return s.registry.MarkOffline(ctx, user.Username)
}

// IsOnline decides whether the subject appears online to the viewer,
// according to the subject's online-status visibility setting.
func (s *Service) IsOnline(ctx context.Context, viewer visibility.Viewer, subject *database.User) (bool, error) {
	subjectOnline, err := s.registry.IsOnline(ctx, subject.Username)
	if err != nil {
		return false, err
	}
	return visibility.Evaluate(subject.Settings.OnlineStatus, viewer, subject.ID, subjectOnline), nil
}

// TopicCount returns the user's topic counter.
func (s *Service) TopicCount(ctx context.Context, userID uint) (int, error) {
	return s.counters.Get(ctx, counter.CounterTopics, userID)
}

// SetTopicCount overwrites the user's topic counter.
func (s *Service) SetTopicCount(ctx context.Context, userID uint, value int) error {
	return s.counters.Set(ctx, counter.CounterTopics, userID, value)
}

// ReplyCount returns the user's reply counter.
func (s *Service) ReplyCount(ctx context.Context, userID uint) (int, error) {
	return s.counters.Get(ctx, counter.CounterReplies, userID)
}

// SetReplyCount overwrites the user's reply counter.
func (s *Service) SetReplyCount(ctx context.Context, userID uint, value int) error {
	return s.counters.Set(ctx, counter.CounterReplies, userID, value)
}

// UpdateProfile applies the update to the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, update database.ProfileUpdate) error {
	return s.db.UpdateProfile(ctx, userID, update)
}

// UpdateSettings applies the update to the user's settings.
func (s *Service) UpdateSettings(ctx context.Context, userID uint, update database.SettingsUpdate) error {
	return s.db.UpdateSettings(ctx, userID, update)
}

// AvatarURL returns the user's avatar reference, falling back to a
// Gravatar URL derived from the email address.
func (s *Service) AvatarURL(user *database.User) string {
	if user.Profile.Avatar != "" {
		return user.Profile.Avatar
	}
	return gravatar.GenerateURL(user.Email, s.gravatar)
}

// Delete removes the account with its profile, settings and follow relations.
func (s *Service) Delete(ctx context.Context, userID uint) error {
	return s.db.DeleteUser(ctx, userID)
}
