// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, resource, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // フィールド名 → 違反内容（バリデーションエラー時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeDuplicateKey       = "DUPLICATE_KEY"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeQuestionNotFound   = "QUESTION_NOT_FOUND"
	ErrCodeEmotionLogNotFound = "EMOTION_LOG_NOT_FOUND"
	ErrCodeDiseaseNotFound    = "DISEASE_NOT_FOUND"
	ErrCodePageNotFound       = "PAGE_NOT_FOUND"
)

// ErrDuplicateKey はストアの一意制約違反を表すセンチネルエラー。
// リポジトリ層がDuplicateKeyErrorでラップして返す。
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError は一意制約に違反したフィールドを保持する。
type DuplicateKeyError struct {
	Field string
}

// Error はerrorインターフェースを実装する。
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Field)
}

// Unwrap はErrDuplicateKeyを返し、errors.Isでの判定を可能にする。
func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// NewValidationError は入力値のバリデーションエラーを生成する。
// fieldsには違反したフィールドごとのメッセージを格納する。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各フィールドのエラー内容を確認して再度送信してください。",
		Fields:   fields,
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー列挙を防ぐため、原因（ユーザー不在・パスワード不一致）に関わらず同一の内容を返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewInvalidTokenError は不正なトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewTokenExpiredError は有効期限切れトークンのエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "リフレッシュトークンでアクセストークンを再取得するか、再度ログインしてください。",
	}
}

// NewUnauthorizedError は認証が必要な操作を未認証で行った場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は認証済みだが権限がない場合のエラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作は許可されていません: %s", reason),
		Category: "auth",
		Action:   "自分のリソースのみ操作できます。",
	}
}

// NewDuplicateKeyError は一意制約違反のエラーを生成する。
func NewDuplicateKeyError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateKey,
		Message:  fmt.Sprintf("この%sは既に使用されています。", field),
		Category: "validation",
		Action:   "別の値を指定してください。",
		Fields:   map[string]string{field: "既に使用されています。"},
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewQuestionNotFoundError は質問が見つからない場合のエラーを生成する。
func NewQuestionNotFoundError(questionID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionNotFound,
		Message:  fmt.Sprintf("指定された質問が見つかりません: %s", questionID),
		Category: "resource",
		Action:   "質問IDを確認してください。",
	}
}

// NewEmotionLogNotFoundError は感情ログが見つからない場合のエラーを生成する。
// 他ユーザーのログも存在しないものとして扱う。
func NewEmotionLogNotFoundError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeEmotionLogNotFound,
		Message:  fmt.Sprintf("指定された感情ログが見つかりません: %s", entryID),
		Category: "resource",
		Action:   "ログIDを確認してください。",
	}
}

// NewDiseaseNotFoundError は検索条件に一致する病気がない場合のエラーを生成する。
func NewDiseaseNotFoundError(query string) *APIError {
	return &APIError{
		Code:     ErrCodeDiseaseNotFound,
		Message:  fmt.Sprintf("検索条件に一致する病気が見つかりません: %s", query),
		Category: "resource",
		Action:   "別のキーワードで検索してください。",
	}
}

// NewPageNotFoundError は存在しないページ番号が指定された場合のエラーを生成する。
// pageにはリクエストで指定された値をそのまま渡す。
func NewPageNotFoundError(page string) *APIError {
	return &APIError{
		Code:     ErrCodePageNotFound,
		Message:  fmt.Sprintf("無効なページです: %q", page),
		Category: "validation",
		Action:   "ページ番号を確認してください。",
	}
}
