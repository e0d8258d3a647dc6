package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/immal/internal/model"
)

// PostgresQuestionRepo はPostgreSQLを使用したフォーラム質問リポジトリ。
type PostgresQuestionRepo struct {
	db *sql.DB
}

// NewPostgresQuestionRepo はPostgresQuestionRepoを生成する。
func NewPostgresQuestionRepo(db *sql.DB) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{db: db}
}

func scanQuestion(row rowScanner) (*model.ForumQuestion, error) {
	q := &model.ForumQuestion{}
	var userID, username sql.NullString

	if err := row.Scan(&q.ID, &userID, &username, &q.Title, &q.Body, &q.Category, &q.CreatedAt); err != nil {
		return nil, err
	}

	q.UserID = nullStringPtr(userID)
	q.Username = nullStringPtr(username)
	return q, nil
}

// List は質問をcreated_at降順で返す。投稿者名はusersとのLEFT JOINで解決する。
func (r *PostgresQuestionRepo) List(ctx context.Context, page model.Page) ([]*model.ForumQuestion, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM forum_questions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("質問件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT q.id, q.user_id, u.username, q.title, q.body, q.category, q.created_at
		 FROM forum_questions q
		 LEFT JOIN users u ON u.id = q.user_id
		 ORDER BY q.created_at DESC, q.id
		 LIMIT $1 OFFSET $2`,
		page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("質問一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	questions := make([]*model.ForumQuestion, 0, page.Size)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("質問のスキャンに失敗しました: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("質問一覧の走査に失敗しました: %w", err)
	}

	return questions, total, nil
}

// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
func (r *PostgresQuestionRepo) FindByID(ctx context.Context, id string) (*model.ForumQuestion, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx,
		`SELECT q.id, q.user_id, u.username, q.title, q.body, q.category, q.created_at
		 FROM forum_questions q
		 LEFT JOIN users u ON u.id = q.user_id
		 WHERE q.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}
	return q, nil
}

// Create は質問を作成する。
func (r *PostgresQuestionRepo) Create(ctx context.Context, question *model.ForumQuestion) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forum_questions (id, user_id, title, body, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		question.ID, question.UserID, question.Title, question.Body, string(question.Category), question.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("質問の作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// Update は質問のタイトル・本文・カテゴリを上書きする。
// 所有者と作成日時は変更しない。
func (r *PostgresQuestionRepo) Update(ctx context.Context, question *model.ForumQuestion) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE forum_questions SET title = $2, body = $3, category = $4 WHERE id = $1`,
		question.ID, question.Title, question.Body, string(question.Category),
	)
	if err != nil {
		return false, fmt.Errorf("質問の更新に失敗しました: %w", err)
	}
	return affectedOne(result)
}

// Delete は指定IDの質問を削除する。回答はforum_answersのON DELETE CASCADEで削除される。
func (r *PostgresQuestionRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM forum_questions WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("質問の削除に失敗しました: %w", err)
	}
	return affectedOne(result)
}

func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ QuestionRepository = (*PostgresQuestionRepo)(nil)
