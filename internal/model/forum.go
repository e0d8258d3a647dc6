package model

import "time"

// ForumCategory はフォーラム質問のカテゴリ。
type ForumCategory string

const (
	CategoryDiabetes     ForumCategory = "Diabetes"
	CategoryCancer       ForumCategory = "Cancer"
	CategoryMentalHealth ForumCategory = "Mental Health"
	CategoryHeartDisease ForumCategory = "Heart Disease"
	CategoryAsthma       ForumCategory = "Asthma"
)

// ForumCategories は許可されたカテゴリの一覧（表示順）。
var ForumCategories = []ForumCategory{
	CategoryDiabetes,
	CategoryCancer,
	CategoryMentalHealth,
	CategoryHeartDisease,
	CategoryAsthma,
}

// IsValidForumCategory はカテゴリが許可リストに含まれるかを判定する。
func IsValidForumCategory(c string) bool {
	for _, v := range ForumCategories {
		if string(v) == c {
			return true
		}
	}
	return false
}

// AnonymousAuthor は投稿者が存在しない場合の表示名。
const AnonymousAuthor = "Anonymous"

// ForumQuestion はフォーラムの質問を表す。
// UserIDがnilの場合は匿名投稿（または投稿者が退会済み）。
type ForumQuestion struct {
	ID        string
	UserID    *string
	Username  *string // 投稿者のユーザー名（JOIN結果）
	Title     string
	Body      string
	Category  ForumCategory
	CreatedAt time.Time
	Answers   []ForumAnswer // created_at昇順
}

// Author は表示用の投稿者名を返す。
func (q *ForumQuestion) Author() string {
	return authorName(q.Username)
}

// ForumAnswer はフォーラム質問への回答を表す。
type ForumAnswer struct {
	ID         string
	QuestionID string
	UserID     *string
	Username   *string
	Body       string
	CreatedAt  time.Time
}

// Author は表示用の回答者名を返す。
func (a *ForumAnswer) Author() string {
	return authorName(a.Username)
}

func authorName(username *string) string {
	if username == nil || *username == "" {
		return AnonymousAuthor
	}
	return *username
}

// ForumQuestionPatch は質問の部分更新内容。nilのフィールドは変更しない。
type ForumQuestionPatch struct {
	Title    *string
	Body     *string
	Category *ForumCategory
}
