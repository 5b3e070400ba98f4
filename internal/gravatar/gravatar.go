// Package gravatar builds fallback avatar URLs for profiles without an
// avatar reference of their own.
package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"github.com/fernwood/fernwood/internal/config"
)

var validDefaults = map[string]bool{
	"404":       true,
	"mp":        true,
	"identicon": true,
	"monsterid": true,
	"wavatar":   true,
	"retro":     true,
	"robohash":  true,
	"blank":     true,
}

var validRatings = map[string]bool{
	"g":  true,
	"pg": true,
	"r":  true,
	"x":  true,
}

// GenerateURL generates a Gravatar URL for the given email address.
// Returns an empty string if Gravatar is disabled or the email is empty.
func GenerateURL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	email = strings.TrimSpace(strings.ToLower(email))
	hash := sha256.Sum256([]byte(email))

	baseURL := fmt.Sprintf("https://www.gravatar.com/avatar/%x", hash)

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", fmt.Sprintf("%d", cfg.Size))
	}

	if len(params) > 0 {
		baseURL = baseURL + "?" + params.Encode()
	}
	return baseURL
}

// IsValidDefaultImage checks if the provided default image value is valid for Gravatar.
func IsValidDefaultImage(defaultImage string) bool {
	return validDefaults[defaultImage]
}

// IsValidRating checks if the provided rating value is valid for Gravatar.
func IsValidRating(rating string) bool {
	return validRatings[rating]
}

// IsValidSize checks if the provided size value is valid for Gravatar (1-2048 pixels).
func IsValidSize(size int) bool {
	return size >= 1 && size <= 2048
}
