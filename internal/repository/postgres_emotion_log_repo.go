package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/immal/internal/model"
)

// PostgresEmotionLogRepo はPostgreSQLを使用した感情ログリポジトリ。
// すべてのクエリはuser_idで絞り込み、他ユーザーのログには触れない。
type PostgresEmotionLogRepo struct {
	db *sql.DB
}

// NewPostgresEmotionLogRepo はPostgresEmotionLogRepoを生成する。
func NewPostgresEmotionLogRepo(db *sql.DB) *PostgresEmotionLogRepo {
	return &PostgresEmotionLogRepo{db: db}
}

// List は所有者の感情ログをcreated_at降順で返す。
func (r *PostgresEmotionLogRepo) List(ctx context.Context, ownerID string, page model.Page) ([]*model.EmotionLogEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM emotion_logs WHERE user_id = $1`,
		ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("感情ログ件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, emotion, created_at
		 FROM emotion_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		ownerID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("感情ログ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.EmotionLogEntry, 0, page.Size)
	for rows.Next() {
		e := &model.EmotionLogEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Emotion, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("感情ログのスキャンに失敗しました: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("感情ログ一覧の走査に失敗しました: %w", err)
	}

	return entries, total, nil
}

// FindByID は所有者の感情ログを取得する。他ユーザーのログは見つからないものとしてnilを返す。
func (r *PostgresEmotionLogRepo) FindByID(ctx context.Context, id, ownerID string) (*model.EmotionLogEntry, error) {
	e := &model.EmotionLogEntry{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, emotion, created_at FROM emotion_logs WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&e.ID, &e.UserID, &e.Emotion, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("感情ログの取得に失敗しました: %w", err)
	}
	return e, nil
}

// Create は感情ログを作成する。
func (r *PostgresEmotionLogRepo) Create(ctx context.Context, entry *model.EmotionLogEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO emotion_logs (id, user_id, emotion, created_at) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.UserID, string(entry.Emotion), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("感情ログの作成に失敗しました: %w", translatePQError(err))
	}
	return nil
}

// UpdateEmotion は感情タグを更新し、更新後のログを返す。見つからない場合はnilを返す。
func (r *PostgresEmotionLogRepo) UpdateEmotion(ctx context.Context, id, ownerID string, emotion model.Emotion) (*model.EmotionLogEntry, error) {
	e := &model.EmotionLogEntry{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE emotion_logs SET emotion = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, emotion, created_at`,
		id, ownerID, string(emotion),
	).Scan(&e.ID, &e.UserID, &e.Emotion, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("感情ログの更新に失敗しました: %w", err)
	}
	return e, nil
}

// Delete は所有者の感情ログを削除する。
func (r *PostgresEmotionLogRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM emotion_logs WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("感情ログの削除に失敗しました: %w", err)
	}
	return affectedOne(result)
}

// CountByEmotion はsince以降に作成された所有者の感情ログを感情タグごとに集計する。
// 件数0のタグは結果に含まれない。
func (r *PostgresEmotionLogRepo) CountByEmotion(ctx context.Context, ownerID string, since time.Time) (model.EmotionCounts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT emotion, count(*)
		 FROM emotion_logs
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY emotion`,
		ownerID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("感情ログの集計に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := make(model.EmotionCounts)
	for rows.Next() {
		var emotion model.Emotion
		var n int
		if err := rows.Scan(&emotion, &n); err != nil {
			return nil, fmt.Errorf("集計結果のスキャンに失敗しました: %w", err)
		}
		counts[emotion] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}

	return counts, nil
}

// compile-time interface check
var _ EmotionLogRepository = (*PostgresEmotionLogRepo)(nil)
