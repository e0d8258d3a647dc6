package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/model"
)

// トークン検証エラー
var (
	// ErrInvalidToken は署名不正・形式不正・種別不一致のトークンを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired は有効期限切れのトークンを表す。
	ErrTokenExpired = errors.New("token expired")
)

// Claims はセッショントークンのクレーム。
// sub（ユーザーID）, iat, exp, jti に加えてトークン種別を持つ。
type Claims struct {
	TokenType model.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager はHS256で署名したアクセス・リフレッシュトークンの発行と検証を行う。
// 検証は署名と有効期限のみで完結し、ストアにはアクセスしない。
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue は指定ユーザーの指定種別のトークンを発行する。
func (m *TokenManager) Issue(subjectID string, kind model.TokenKind) (string, error) {
	var ttl time.Duration
	switch kind {
	case model.TokenKindAccess:
		ttl = m.accessTTL
	case model.TokenKindRefresh:
		ttl = m.refreshTTL
	default:
		return "", fmt.Errorf("unknown token kind: %q", kind)
	}

	now := m.now()
	claims := Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名・有効期限・種別を検証し、クレームを返す。
// 有効期限切れは ErrTokenExpired、それ以外の不正は ErrInvalidToken を返す。
func (m *TokenManager) Verify(token string, expected model.TokenKind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, expected, claims.TokenType)
	}

	return claims, nil
}

// TokenAPIError はトークン検証エラーをAPIエラーに変換する。
func TokenAPIError(err error) *model.APIError {
	if errors.Is(err, ErrTokenExpired) {
		return model.NewTokenExpiredError()
	}
	return model.NewInvalidTokenError()
}
