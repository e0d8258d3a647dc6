// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は登録済みアカウント（ユーザー）を表す。
// パスワードはハッシュ値のみを保持し、平文は作成時以外に扱わない。
type Identity struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Birthdate    *time.Time
	Country      *string
	Diseases     []string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPrivileged はスーパーユーザー権限を持つかどうかを返す。
// 全ユーザーの閲覧可否はこのフラグのみで判定する。
func (i *Identity) IsPrivileged() bool {
	return i != nil && i.IsSuperuser
}

// TokenKind はセッショントークンの種別を表す。
type TokenKind string

const (
	// TokenKindAccess は短命のアクセストークン。
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh はアクセストークン再発行用の長命トークン。
	TokenKindRefresh TokenKind = "refresh"
)

// SessionPair はログイン成功時に発行されるトークンの組。
type SessionPair struct {
	Identity     *Identity
	AccessToken  string
	RefreshToken string
}
