package gravatar

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/fernwood/fernwood/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestGenerateURL(t *testing.T) {
	cfg := &config.GravatarConfig{
		Enabled:      true,
		DefaultImage: "identicon",
		Rating:       "g",
		Size:         80,
	}

	got := GenerateURL("Alice@Example.COM ", cfg)

	hash := sha256.Sum256([]byte("alice@example.com"))
	want := fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&r=g&s=80", hash)
	assert.Equal(t, want, got)
}

func TestGenerateURLDisabled(t *testing.T) {
	assert.Empty(t, GenerateURL("alice@example.com", nil))
	assert.Empty(t, GenerateURL("alice@example.com", &config.GravatarConfig{Enabled: false}))
	assert.Empty(t, GenerateURL("", &config.GravatarConfig{Enabled: true}))
}

func TestGenerateURLWithoutParams(t *testing.T) {
	got := GenerateURL("alice@example.com", &config.GravatarConfig{Enabled: true})
	assert.NotContains(t, got, "?")
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidDefaultImage("identicon"))
	assert.False(t, IsValidDefaultImage("dragon"))

	assert.True(t, IsValidRating("pg"))
	assert.False(t, IsValidRating("nc-17"))

	assert.True(t, IsValidSize(80))
	assert.False(t, IsValidSize(0))
	assert.False(t, IsValidSize(4096))
}
