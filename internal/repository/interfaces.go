// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/immal/internal/model"
)

// ErrReferenceNotFound は外部キーの参照先が存在しない場合のエラー。
// 回答の作成中に質問が削除された場合などに返る。
var ErrReferenceNotFound = errors.New("referenced row not found")

// ErrIdentityNotFound は削除対象のユーザーが存在しない場合のエラー。
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository はユーザーデータの永続化インターフェース。
type IdentityRepository interface {
	// Create はユーザーを作成する。
	// username / email の一意制約違反は *model.DuplicateKeyError を返す。
	Create(ctx context.Context, identity *model.Identity) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Identity, error)

	// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Identity, error)

	// List はスコープ内のユーザーをupdated_at降順で返す。totalはスコープ内の全件数。
	List(ctx context.Context, scope model.Scope, page model.Page) (identities []*model.Identity, total int, err error)

	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteByID は指定IDのユーザーを削除する。
	// フォーラム投稿の所有者はNULLになり、感情ログはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// QuestionRepository はフォーラム質問の永続化インターフェース。
// 回答の取得はAnswerRepositoryが担う。
type QuestionRepository interface {
	// List は質問をcreated_at降順で返す。totalは全件数。
	List(ctx context.Context, page model.Page) (questions []*model.ForumQuestion, total int, err error)

	// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ForumQuestion, error)

	// Create は質問を作成する。
	Create(ctx context.Context, question *model.ForumQuestion) error

	// Update は質問のタイトル・本文・カテゴリを上書きする。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, question *model.ForumQuestion) (bool, error)

	// Delete は指定IDの質問を削除する。回答はCASCADE削除される。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// AnswerRepository はフォーラム回答の永続化インターフェース。
type AnswerRepository interface {
	// Create は回答を作成する。質問が存在しない場合は ErrReferenceNotFound を返す。
	Create(ctx context.Context, answer *model.ForumAnswer) error

	// ListByQuestionIDs は指定質問群の回答を質問IDごとにcreated_at昇順で返す。
	ListByQuestionIDs(ctx context.Context, questionIDs []string) (map[string][]model.ForumAnswer, error)
}

// EmotionLogRepository は感情ログの永続化インターフェース。
// すべての操作は所有者IDで絞り込まれる。
type EmotionLogRepository interface {
	// List は所有者の感情ログをcreated_at降順で返す。totalは所有者の全件数。
	List(ctx context.Context, ownerID string, page model.Page) (entries []*model.EmotionLogEntry, total int, err error)

	// FindByID は所有者の感情ログを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id, ownerID string) (*model.EmotionLogEntry, error)

	// Create は感情ログを作成する。
	Create(ctx context.Context, entry *model.EmotionLogEntry) error

	// UpdateEmotion は感情タグを更新し、更新後のログを返す。見つからない場合はnilを返す。
	UpdateEmotion(ctx context.Context, id, ownerID string, emotion model.Emotion) (*model.EmotionLogEntry, error)

	// Delete は所有者の感情ログを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id, ownerID string) (bool, error)

	// CountByEmotion はsince以降に作成された所有者の感情ログを感情タグごとに集計する。
	CountByEmotion(ctx context.Context, ownerID string, since time.Time) (model.EmotionCounts, error)
}

// DiseaseRepository は病気情報の読み取り専用インターフェース。
type DiseaseRepository interface {
	// SearchByName は名前に部分一致（大文字小文字を区別しない）する病気を名前順で返す。
	SearchByName(ctx context.Context, query string) ([]*model.Disease, error)
}

// QuoteRepository は引用の読み取り専用インターフェース。
type QuoteRepository interface {
	// List はすべての引用を返す。
	List(ctx context.Context) ([]*model.Quote, error)
}
