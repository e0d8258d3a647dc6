package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/immal/internal/model"
)

// PostgresAnswerRepo はPostgreSQLを使用したフォーラム回答リポジトリ。
type PostgresAnswerRepo struct {
	db *sql.DB
}

// NewPostgresAnswerRepo はPostgresAnswerRepoを生成する。
func NewPostgresAnswerRepo(db *sql.DB) *PostgresAnswerRepo {
	return &PostgresAnswerRepo{db: db}
}

// Create は回答を作成する。
// 質問が既に削除されている場合は外部キー違反となり ErrReferenceNotFound を返す。
func (r *PostgresAnswerRepo) Create(ctx context.Context, answer *model.ForumAnswer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forum_answers (id, question_id, user_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		answer.ID, answer.QuestionID, answer.UserID, answer.Body, answer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("回答の作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// ListByQuestionIDs は指定質問群の回答を1クエリで取得し、質問IDごとにcreated_at昇順でまとめる。
func (r *PostgresAnswerRepo) ListByQuestionIDs(ctx context.Context, questionIDs []string) (map[string][]model.ForumAnswer, error) {
	result := make(map[string][]model.ForumAnswer, len(questionIDs))
	if len(questionIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.user_id, u.username, a.body, a.created_at
		 FROM forum_answers a
		 LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.question_id = ANY($1::uuid[])
		 ORDER BY a.created_at ASC, a.id`,
		pq.Array(questionIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.ForumAnswer
		var userID, username sql.NullString
		if err := rows.Scan(&a.ID, &a.QuestionID, &userID, &username, &a.Body, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("回答のスキャンに失敗しました: %w", err)
		}
		a.UserID = nullStringPtr(userID)
		a.Username = nullStringPtr(username)
		result[a.QuestionID] = append(result[a.QuestionID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("回答一覧の走査に失敗しました: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ AnswerRepository = (*PostgresAnswerRepo)(nil)
