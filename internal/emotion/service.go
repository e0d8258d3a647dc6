// Package emotion は感情ログの記録と集計のドメインロジックを提供する。
// 感情ログは権限に関わらず常に本人のものだけを扱う。
package emotion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
	"github.com/hitoshi/immal/internal/validation"
)

// 集計期間（日数）
const (
	weekDays  = 7
	monthDays = 30
)

// Input は感情ログの作成・全体更新（PUT）の入力。
type Input struct {
	Emotion string `json:"emotion" validate:"required,emotion"`
}

// Patch は感情ログの部分更新（PATCH）の入力。
type Patch struct {
	Emotion *string `json:"emotion" validate:"omitnil,required,emotion"`
}

// Service は感情ログのサービス層。
type Service struct {
	logs      repository.EmotionLogRepository
	resolver  *access.Resolver
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	logs repository.EmotionLogRepository,
	resolver *access.Resolver,
	validator *validation.Validator,
) *Service {
	return &Service{
		logs:      logs,
		resolver:  resolver,
		validator: validator,
		now:       time.Now,
	}
}

// scope はアクセス判定を行い、対象となる所有者IDを返す。
func (s *Service) scope(auth access.AuthContext, action access.Action) (string, error) {
	decision := s.resolver.ScopeFor(auth, access.ResourceEmotionLog, action)
	if err := decision.Err(); err != nil {
		return "", err
	}
	return decision.Scope.OwnerID, nil
}

// List は呼び出し元の感情ログを新しい順に返す。
func (s *Service) List(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.EmotionLogEntry], error) {
	ownerID, err := s.scope(auth, access.ActionList)
	if err != nil {
		return model.PageResult[*model.EmotionLogEntry]{}, err
	}

	entries, total, err := s.logs.List(ctx, ownerID, page)
	if err != nil {
		return model.PageResult[*model.EmotionLogEntry]{}, fmt.Errorf("感情ログ一覧の取得に失敗しました: %w", err)
	}
	return model.NewPageResult(entries, total, page)
}

// Create は呼び出し元の感情ログを記録する。
func (s *Service) Create(ctx context.Context, auth access.AuthContext, input Input) (*model.EmotionLogEntry, error) {
	ownerID, err := s.scope(auth, access.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	entry := &model.EmotionLogEntry{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Emotion:   model.Emotion(input.Emotion),
		CreatedAt: s.now().UTC(),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("感情ログの作成に失敗しました: %w", err)
	}

	slog.Info("emotion logged",
		slog.String("entry_id", entry.ID),
		slog.String("user_id", ownerID),
		slog.String("emotion", input.Emotion),
	)
	return entry, nil
}

// Get は呼び出し元の感情ログを1件返す。他ユーザーのログは存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, auth access.AuthContext, id string) (*model.EmotionLogEntry, error) {
	ownerID, err := s.scope(auth, access.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewEmotionLogNotFoundError(id)
	}

	entry, err := s.logs.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("感情ログの取得に失敗しました: %w", err)
	}
	if entry == nil {
		return nil, model.NewEmotionLogNotFoundError(id)
	}
	return entry, nil
}

// Update は感情ログの感情タグを置き換える（PUT）。
func (s *Service) Update(ctx context.Context, auth access.AuthContext, id string, input Input) (*model.EmotionLogEntry, error) {
	return s.Patch(ctx, auth, id, Patch{Emotion: &input.Emotion})
}

// Patch は指定された場合のみ感情タグを更新する（PATCH）。
// 変更内容がない場合は現在のログを返す。
func (s *Service) Patch(ctx context.Context, auth access.AuthContext, id string, patch Patch) (*model.EmotionLogEntry, error) {
	ownerID, err := s.scope(auth, access.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(&patch); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewEmotionLogNotFoundError(id)
	}

	var entry *model.EmotionLogEntry
	if patch.Emotion == nil {
		entry, err = s.logs.FindByID(ctx, id, ownerID)
	} else {
		entry, err = s.logs.UpdateEmotion(ctx, id, ownerID, model.Emotion(*patch.Emotion))
	}
	if err != nil {
		return nil, fmt.Errorf("感情ログの更新に失敗しました: %w", err)
	}
	if entry == nil {
		return nil, model.NewEmotionLogNotFoundError(id)
	}
	return entry, nil
}

// Delete は呼び出し元の感情ログを削除する。
func (s *Service) Delete(ctx context.Context, auth access.AuthContext, id string) error {
	ownerID, err := s.scope(auth, access.ActionDelete)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.NewEmotionLogNotFoundError(id)
	}

	deleted, err := s.logs.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("感情ログの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewEmotionLogNotFoundError(id)
	}
	return nil
}

// CountByEmotion は呼び出し元の感情ログのうち、since以降に作成されたものを感情タグごとに数える。
func (s *Service) CountByEmotion(ctx context.Context, auth access.AuthContext, since time.Time) (model.EmotionCounts, error) {
	ownerID, err := s.scope(auth, access.ActionList)
	if err != nil {
		return nil, err
	}

	counts, err := s.logs.CountByEmotion(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("感情ログの集計に失敗しました: %w", err)
	}
	if counts == nil {
		counts = model.EmotionCounts{}
	}
	return counts, nil
}

// Stats は今日・直近7日・直近30日の感情タグ別件数を返す。
// 3つの期間はすべて同じ基準時刻から算出したUTCの日付境界で区切る。
func (s *Service) Stats(ctx context.Context, auth access.AuthContext) (*model.EmotionStats, error) {
	if _, err := s.scope(auth, access.ActionList); err != nil {
		return nil, err
	}

	today, week, month := Windows(s.now())

	stats := &model.EmotionStats{}
	var err error
	if stats.Today, err = s.CountByEmotion(ctx, auth, today); err != nil {
		return nil, err
	}
	if stats.ThisWeek, err = s.CountByEmotion(ctx, auth, week); err != nil {
		return nil, err
	}
	if stats.ThisMonth, err = s.CountByEmotion(ctx, auth, month); err != nil {
		return nil, err
	}
	return stats, nil
}

// Windows は基準時刻から集計期間の開始時刻（今日・7日前・30日前の0時UTC）を返す。
func Windows(now time.Time) (today, week, month time.Time) {
	y, m, d := now.UTC().Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today, today.AddDate(0, 0, -weekDays), today.AddDate(0, 0, -monthDays)
}
