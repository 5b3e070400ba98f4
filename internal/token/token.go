// Package token issues and verifies the signed, time-limited tokens used
// for email confirmation and lightweight auth proof. Tokens encode a single
// claim (email or username) encrypted with a key derived from the
// process-wide secret; the configured salt is bound in as an implicit
// assertion, so tokens issued under a different secret or salt never verify.
package token

import (
	"crypto/sha256"
	"errors"
	"time"

	"aidanwoods.dev/go-paseto"
)

// Default maximum token ages.
const (
	DefaultEmailMaxAge = 1800 * time.Second
	DefaultAuthMaxAge  = 86400 * time.Second
)

var (
	// ErrInvalidToken is returned for tokens that fail decryption or carry
	// an unexpected claim set.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for tokens older than the allowed max age.
	ErrExpiredToken = errors.New("token has expired")
)

const (
	claimEmail    = "email"
	claimUsername = "username"
)

// Service issues and verifies tokens. It is stateless and safe for
// concurrent use.
type Service struct {
	key         paseto.V4SymmetricKey
	implicit    []byte
	emailMaxAge time.Duration
	authMaxAge  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithEmailMaxAge overrides the default max age for email confirmation tokens.
func WithEmailMaxAge(d time.Duration) Option {
	return func(s *Service) { s.emailMaxAge = d }
}

// WithAuthMaxAge overrides the default max age for auth tokens.
func WithAuthMaxAge(d time.Duration) Option {
	return func(s *Service) { s.authMaxAge = d }
}

// New creates a token service from the configured secret key and salt.
func New(secretKey, salt string, opts ...Option) (*Service, error) {
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if salt == "" {
		return nil, errors.New("salt must not be empty")
	}

	derived := sha256.Sum256([]byte(secretKey))
	key, err := paseto.V4SymmetricKeyFromBytes(derived[:])
	if err != nil {
		return nil, err
	}

	s := &Service{
		key:         key,
		implicit:    []byte(salt),
		emailMaxAge: DefaultEmailMaxAge,
		authMaxAge:  DefaultAuthMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueEmailToken signs the email address for the confirmation flow.
func (s *Service) IssueEmailToken(email string) string {
	return s.issue(claimEmail, email, s.emailMaxAge)
}

// VerifyEmailToken decodes an email confirmation token and returns the
// email claim. A zero maxAge uses the service default.
func (s *Service) VerifyEmailToken(tok string, maxAge time.Duration) (string, error) {
	if maxAge == 0 {
		maxAge = s.emailMaxAge
	}
	return s.verify(tok, claimEmail, maxAge)
}

// IssueAuthToken signs the username for the generic auth flow.
func (s *Service) IssueAuthToken(username string) string {
	return s.issue(claimUsername, username, s.authMaxAge)
}

// VerifyAuthToken decodes an auth token and returns the username claim.
// A zero maxAge uses the service default.
func (s *Service) VerifyAuthToken(tok string, maxAge time.Duration) (string, error) {
	if maxAge == 0 {
		maxAge = s.authMaxAge
	}
	return s.verify(tok, claimUsername, maxAge)
}

func (s *Service) issue(claim, value string, maxAge time.Duration) string {
	now := time.Now()

	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(now.Add(maxAge))
	t.SetString(claim, value)

	return t.V4Encrypt(s.key, s.implicit)
}

func (s *Service) verify(tok, claim string, maxAge time.Duration) (string, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	t, err := parser.ParseV4Local(s.key, tok, s.implicit)
	if err != nil {
		return "", ErrInvalidToken
	}

	issuedAt, err := t.GetIssuedAt()
	if err != nil {
		return "", ErrInvalidToken
	}
	expiration, err := t.GetExpiration()
	if err != nil {
		return "", ErrInvalidToken
	}

	now := time.Now()
	if now.After(expiration) || now.Sub(issuedAt) > maxAge {
		return "", ErrExpiredToken
	}

	value, err := t.GetString(claim)
	if err != nil {
		return "", ErrInvalidToken
	}
	return value, nil
}
