// Package service contains the business logic layer.
//
// Services sit between the HTTP handlers and the remote content API. They are
// responsible for:
// - Credential checks for the admin panel
// - Sanitizing rich-text bodies before they leave or enter the site
// - Keeping the shared category list fresh
// - Applying waitlist defaults
// - Resizing and storing cover images
package service

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/metrics"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor used when hashing a plaintext admin
	// password from the environment at startup.
	BcryptCost = 12

	// DefaultAdminUsername and DefaultAdminPassword are the placeholder
	// credentials used when none are configured.
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "@Sourzer2025"

	// InvalidCredentialsMessage is shown for any rejected login.
	InvalidCredentialsMessage = "Invalid credentials. Try contacting the admin"
)

// dummyHash keeps the rejected-username path as slow as a real comparison.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

// =============================================================================
// Interface Definition
// =============================================================================

// AuthService checks admin credentials.
//
// There is one administrator account. A successful Login yields the
// AuthSession that the handler persists; nothing else is issued.
type AuthService interface {
	// Login compares username and password against the configured admin.
	// Returns domain.EUNAUTHORIZED with InvalidCredentialsMessage on mismatch.
	Login(ctx context.Context, username, password string) (*domain.AuthSession, error)
}

// AdminCredentials holds the single configured administrator.
type AdminCredentials struct {
	Username     string
	PasswordHash []byte // bcrypt hash
}

// NewAdminCredentials builds credentials from configuration. A non-empty
// passwordHash wins; otherwise password is hashed. Empty values fall back to
// the defaults.
func NewAdminCredentials(username, password, passwordHash string) (AdminCredentials, error) {
	if username == "" {
		username = DefaultAdminUsername
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return AdminCredentials{}, domain.Invalid("auth.credentials", "ADMIN_PASSWORD_HASH is not a bcrypt hash")
		}
		return AdminCredentials{Username: username, PasswordHash: []byte(passwordHash)}, nil
	}
	if password == "" {
		password = DefaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return AdminCredentials{}, domain.Internal(err, "auth.credentials", "failed to hash admin password")
	}
	return AdminCredentials{Username: username, PasswordHash: hash}, nil
}

// =============================================================================
// Implementation
// =============================================================================

type authService struct {
	creds  AdminCredentials
	logger *slog.Logger
}

// NewAuthService creates a new AuthService.
//
// Parameters:
// - creds: The administrator account
// - logger: Structured logger for login events
func NewAuthService(creds AdminCredentials, logger *slog.Logger) AuthService {
	return &authService{creds: creds, logger: logger}
}

// Login authenticates the administrator.
//
// Security Considerations:
// - The username comparison is constant-time
// - bcrypt runs even when the username is wrong
// - The same message is returned for every failure
func (s *authService) Login(ctx context.Context, username, password string) (*domain.AuthSession, error) {
	const op = "auth.login"

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	hash := s.creds.PasswordHash
	if !userOK {
		hash = dummyHash
	}
	passOK := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if !userOK || !passOK {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		s.logger.Info("admin login rejected", "username", username)
		return nil, domain.Unauthorized(op, InvalidCredentialsMessage)
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	s.logger.Info("admin logged in", "username", username)
	return &domain.AuthSession{Username: username, IsAuthenticated: true}, nil
}
