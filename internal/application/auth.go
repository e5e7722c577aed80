package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/pkg/helpers"
)

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(accountID string) string {
	return "account:session:" + accountID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Authenticate validates email/password via the case-insensitive
// natural-key lookup. Deleted and deactivated accounts cannot log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	a, err := s.GetByCanonicalKey(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if a.Deleted || !a.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// IssueTokens generates access/refresh tokens and records a session in
// Redis.
func (s *Service) IssueTokens(ctx context.Context, a *entity.Account) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(a.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"account_id":   a.ID,
			"email":        a.Email,
			"display_name": a.DisplayName,
			"sid":          sid,
			"created_at":   nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Login authenticates and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.Account, TokenPair, error) {
	a, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return a, pair, nil
}

// Refresh rotates the session id and token pair after validating the
// refresh token against the current session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	a, err := s.GetProfile(ctx, claims.AccountID)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if a.Deleted || !a.IsActive {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(a.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, a.ID, nil
}

// Logout drops the Redis session.
func (s *Service) Logout(ctx context.Context, accountID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(accountID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", accountID).Warn("session delete failed")
	}
}
