// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はフォーラム投稿のテキストからマークアップを除去し、
// クライアントでのXSSリスクを防ぐ。PasswordHasher はパスワードのハッシュ化と照合を行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
// フォーラムの質問・回答の保存前に使用される。
type TextSanitizer interface {
	// Sanitize はすべてのHTMLタグを除去したプレーンテキストを返す。
	// script, styleタグは内容ごと除去される。
	// 文字参照はデコードし、前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフで、複数のリクエストから共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないポリシーでTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// bluemondayは出力をHTMLエスケープするため、保存用に文字参照を戻す
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
