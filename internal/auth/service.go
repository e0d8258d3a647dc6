// Package auth はユーザー名・パスワードによる認証とセッショントークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/immal/internal/metrics"
	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
)

// PasswordVerifier はパスワード照合のインターフェース。
type PasswordVerifier interface {
	Verify(hash, plaintext string) bool
	DummyVerify(plaintext string) bool
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	identities repository.IdentityRepository
	passwords  PasswordVerifier
	tokens     *TokenManager
	metrics    metrics.MetricsCollector
	now        func() time.Time
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	identities repository.IdentityRepository,
	passwords PasswordVerifier,
	tokens *TokenManager,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		identities: identities,
		passwords:  passwords,
		tokens:     tokens,
		metrics:    collector,
		now:        time.Now,
	}
}

// Authenticate はユーザー名とパスワードを検証し、アクセス・リフレッシュトークンを発行する。
// ユーザー不在・無効化済み・パスワード不一致はいずれも同一のINVALID_CREDENTIALSを返す。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.SessionPair, error) {
	// 1. ユーザー名でユーザーを検索
	identity, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// 2. パスワード照合。ユーザー不在でもbcryptの計算を行い応答時間を揃える
	var ok bool
	if identity == nil {
		ok = s.passwords.DummyVerify(password)
	} else {
		ok = s.passwords.Verify(identity.PasswordHash, password) && identity.IsActive
	}
	if !ok {
		s.recordLogin(metrics.ResultFailure)
		slog.Warn("login failed", slog.String("username", username))
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. トークン発行
	access, err := s.tokens.Issue(identity.ID, model.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(identity.ID, model.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	// 4. 最終ログイン日時を更新（失敗してもログインは成功させる）
	now := s.now().UTC()
	if err := s.identities.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		slog.Error("failed to update last login",
			slog.String("user_id", identity.ID),
			slog.String("error", err.Error()),
		)
	} else {
		identity.LastLogin = &now
	}

	s.recordLogin(metrics.ResultSuccess)
	slog.Info("user logged in", slog.String("user_id", identity.ID))

	return &model.SessionPair{
		Identity:     identity,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh はリフレッシュトークンを検証し、同じユーザーの新しいアクセストークンを発行する。
// ストアにはアクセスしない。ユーザーの存在確認はアクセス時に行われる。
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, model.TokenKindRefresh)
	if err != nil {
		result := metrics.ResultInvalid
		if errors.Is(err, ErrTokenExpired) {
			result = metrics.ResultExpired
		}
		s.recordRefresh(result)
		slog.Warn("refresh token rejected", slog.String("reason", err.Error()))
		return "", TokenAPIError(err)
	}

	access, err := s.tokens.Issue(claims.Subject, model.TokenKindAccess)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	s.recordRefresh(metrics.ResultSuccess)
	return access, nil
}

// VerifyAccessToken はアクセストークンを検証し、ユーザーIDを返す。
func (s *Service) VerifyAccessToken(token string) (string, error) {
	claims, err := s.tokens.Verify(token, model.TokenKindAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}

func (s *Service) recordRefresh(result string) {
	if s.metrics != nil {
		s.metrics.RecordTokenRefresh(result)
	}
}
