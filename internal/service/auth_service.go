package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/auth"
	"github.com/spec-kit/ticket-assistant/internal/config"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// AuthService logs staff members in against the configured accounts.
type AuthService struct {
	accounts map[string]string
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service. Accounts whose hash is not bcrypt are skipped.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	accounts := make(map[string]string, len(cfg.StaffAccounts))
	for username, hash := range cfg.StaffAccounts {
		if err := auth.CheckHash(hash); err != nil {
			logger.Warn("ignoring staff account", zap.String("username", username), zap.Error(err))
			continue
		}
		accounts[username] = hash
	}
	return &AuthService{accounts: accounts, tokenMgr: tokens, logger: logger}
}

// Enabled reports whether any staff account is configured.
func (s *AuthService) Enabled() bool {
	return len(s.accounts) > 0
}

// LoginStaff verifies the password and issues an access token.
func (s *AuthService) LoginStaff(_ context.Context, username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, apperrors.NewValidationError("username and password required", nil)
	}
	if !s.Enabled() {
		return "", time.Time{}, apperrors.NewValidationError("authentication is disabled", nil)
	}

	hash, ok := s.accounts[username]
	if !ok {
		auth.RejectUnknown(password)
		s.logger.Info("staff login rejected", zap.String("username", username))
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(hash, password); err != nil {
		s.logger.Info("staff login rejected", zap.String("username", username))
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(username)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("staff logged in", zap.String("username", username))
	return token, exp, nil
}
