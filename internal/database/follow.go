package database

import (
	"context"

	"github.com/charmbracelet/log"
)

// Follow records that follower observes the user's activity.
// There is no self-follow guard at this layer; see DeleteUser for how
// join rows are cleaned up.
func (c *Client) Follow(ctx context.Context, userID, followerID uint) error {
	if err := c.db.WithContext(ctx).Exec(
		"INSERT INTO user_followers (user_id, follower_id) VALUES (?, ?)", userID, followerID,
	).Error; err != nil {
		log.Error("failed to follow user", "user_id", userID, "follower_id", followerID, "error", err)
		return err
	}
	return nil
}

// Unfollow removes the follow relation. Removing a relation that does not
// exist is a no-op.
func (c *Client) Unfollow(ctx context.Context, userID, followerID uint) error {
	if err := c.db.WithContext(ctx).Exec(
		"DELETE FROM user_followers WHERE user_id = ? AND follower_id = ?", userID, followerID,
	).Error; err != nil {
		log.Error("failed to unfollow user", "user_id", userID, "follower_id", followerID, "error", err)
		return err
	}
	return nil
}

// IsFollowedBy reports whether follower follows the user. The relation is
// directional: IsFollowedBy(a, b) says nothing about IsFollowedBy(b, a).
func (c *Client) IsFollowedBy(ctx context.Context, userID, followerID uint) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Table("user_followers").
		Where("user_id = ? AND follower_id = ?", userID, followerID).
		Count(&count).Error; err != nil {
		log.Error("failed to check follow relation", "user_id", userID, "follower_id", followerID, "error", err)
		return false, err
	}
	return count > 0, nil
}

// FollowerCount returns the number of users following the user.
func (c *Client) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Table("user_followers").
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		log.Error("failed to count followers", "user_id", userID, "error", err)
		return 0, err
	}
	return count, nil
}

// Followers returns the users following the user.
func (c *Client) Followers(ctx context.Context, userID uint) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).
		Joins("JOIN user_followers ON user_followers.follower_id = users.id").
		Where("user_followers.user_id = ?", userID).
		Find(&users).Error; err != nil {
		log.Error("failed to list followers", "user_id", userID, "error", err)
		return nil, err
	}
	return users, nil
}
