// Package community はフォーラムの質問・回答のドメインロジックを提供する。
package community

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
	"github.com/hitoshi/immal/internal/security"
	"github.com/hitoshi/immal/internal/validation"
)

// QuestionInput は質問の作成・全体更新（PUT）の入力。
type QuestionInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"required,forum_category"`
}

// QuestionPatch は質問の部分更新（PATCH）の入力。省略したフィールドは変更しない。
type QuestionPatch struct {
	Title    *string `json:"title" validate:"omitnil,required,max=255"`
	Body     *string `json:"body" validate:"omitnil,required"`
	Category *string `json:"category" validate:"omitnil,required,forum_category"`
}

// AnswerInput は回答作成の入力。
type AnswerInput struct {
	Body string `json:"body" validate:"required"`
}

// Service はフォーラムのサービス層。
// すべての操作はリポジトリに触れる前にアクセス判定を行う。
type Service struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	resolver  *access.Resolver
	sanitizer security.TextSanitizer
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	resolver *access.Resolver,
	sanitizer security.TextSanitizer,
	validator *validation.Validator,
) *Service {
	return &Service{
		questions: questions,
		answers:   answers,
		resolver:  resolver,
		sanitizer: sanitizer,
		validator: validator,
		now:       time.Now,
	}
}

// ListQuestions は質問を新しい順に返す。各質問には回答が古い順に付与される。
func (s *Service) ListQuestions(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.ForumQuestion], error) {
	if err := s.resolver.ScopeFor(auth, access.ResourceForumQuestion, access.ActionList).Err(); err != nil {
		return model.PageResult[*model.ForumQuestion]{}, err
	}

	questions, total, err := s.questions.List(ctx, page)
	if err != nil {
		return model.PageResult[*model.ForumQuestion]{}, fmt.Errorf("質問一覧の取得に失敗しました: %w", err)
	}
	if err := s.attachAnswers(ctx, questions...); err != nil {
		return model.PageResult[*model.ForumQuestion]{}, err
	}
	return model.NewPageResult(questions, total, page)
}

// CreateQuestion は質問を作成する。
// 認証済みの場合は呼び出し元を投稿者とし、匿名の場合は投稿者なしで作成する。
func (s *Service) CreateQuestion(ctx context.Context, auth access.AuthContext, input QuestionInput) (*model.ForumQuestion, error) {
	if err := s.resolver.ScopeFor(auth, access.ResourceForumQuestion, access.ActionCreate).Err(); err != nil {
		return nil, err
	}

	input.Title = s.sanitizer.Sanitize(input.Title)
	input.Body = s.sanitizer.Sanitize(input.Body)
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	question := &model.ForumQuestion{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Body:      input.Body,
		Category:  model.ForumCategory(input.Category),
		CreatedAt: s.now().UTC(),
		Answers:   []model.ForumAnswer{},
	}
	if !auth.IsAnonymous() {
		userID := auth.Identity.ID
		username := auth.Identity.Username
		question.UserID = &userID
		question.Username = &username
	}

	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("質問の作成に失敗しました: %w", err)
	}

	slog.Info("question created",
		slog.String("question_id", question.ID),
		slog.String("user_id", auth.SubjectID()),
	)
	return question, nil
}

// GetQuestion は指定IDの質問を回答付きで返す。
func (s *Service) GetQuestion(ctx context.Context, auth access.AuthContext, id string) (*model.ForumQuestion, error) {
	if err := s.resolver.ScopeFor(auth, access.ResourceForumQuestion, access.ActionRetrieve).Err(); err != nil {
		return nil, err
	}

	question, err := s.findQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachAnswers(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// ReplaceQuestion は質問のタイトル・本文・カテゴリをすべて置き換える（PUT）。
// 認証済みであれば投稿者以外も更新できる。
func (s *Service) ReplaceQuestion(ctx context.Context, auth access.AuthContext, id string, input QuestionInput) (*model.ForumQuestion, error) {
	return s.PatchQuestion(ctx, auth, id, QuestionPatch{
		Title:    &input.Title,
		Body:     &input.Body,
		Category: &input.Category,
	})
}

// PatchQuestion は指定されたフィールドのみを更新する（PATCH）。
// 認証済みであれば投稿者以外も更新できる。
func (s *Service) PatchQuestion(ctx context.Context, auth access.AuthContext, id string, patch QuestionPatch) (*model.ForumQuestion, error) {
	// 1. アクセス判定
	if err := s.resolver.ScopeFor(auth, access.ResourceForumQuestion, access.ActionUpdate).Err(); err != nil {
		return nil, err
	}

	// 2. 入力の無害化と検証
	if patch.Title != nil {
		title := s.sanitizer.Sanitize(*patch.Title)
		patch.Title = &title
	}
	if patch.Body != nil {
		body := s.sanitizer.Sanitize(*patch.Body)
		patch.Body = &body
	}
	if err := s.validator.Struct(&patch); err != nil {
		return nil, err
	}

	// 3. 既存の質問に変更を適用
	question, err := s.findQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		question.Title = *patch.Title
	}
	if patch.Body != nil {
		question.Body = *patch.Body
	}
	if patch.Category != nil {
		question.Category = model.ForumCategory(*patch.Category)
	}

	// 4. 保存（取得後に削除された場合はNOT_FOUND）
	updated, err := s.questions.Update(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("質問の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewQuestionNotFoundError(id)
	}

	if err := s.attachAnswers(ctx, question); err != nil {
		return nil, err
	}

	slog.Info("question updated",
		slog.String("question_id", question.ID),
		slog.String("user_id", auth.SubjectID()),
	)
	return question, nil
}

// DeleteQuestion は質問を削除する。回答も一緒に削除される。
// 認証済みであれば投稿者以外も削除できる。
func (s *Service) DeleteQuestion(ctx context.Context, auth access.AuthContext, id string) error {
	if err := s.resolver.ScopeFor(auth, access.ResourceForumQuestion, access.ActionDelete).Err(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.NewQuestionNotFoundError(id)
	}

	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("質問の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewQuestionNotFoundError(id)
	}

	slog.Info("question deleted",
		slog.String("question_id", id),
		slog.String("user_id", auth.SubjectID()),
	)
	return nil
}

// CreateAnswer は質問に回答を追加する。質問が存在しない場合はQUESTION_NOT_FOUNDを返す。
func (s *Service) CreateAnswer(ctx context.Context, auth access.AuthContext, questionID string, input AnswerInput) (*model.ForumAnswer, error) {
	if err := s.resolver.ScopeFor(auth, access.ResourceForumAnswer, access.ActionCreate).Err(); err != nil {
		return nil, err
	}

	input.Body = s.sanitizer.Sanitize(input.Body)
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	if _, err := s.findQuestion(ctx, questionID); err != nil {
		return nil, err
	}

	answer := &model.ForumAnswer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Body:       input.Body,
		CreatedAt:  s.now().UTC(),
	}
	if !auth.IsAnonymous() {
		userID := auth.Identity.ID
		username := auth.Identity.Username
		answer.UserID = &userID
		answer.Username = &username
	}

	// 存在確認後に質問が削除された場合は外部キー違反になる
	err := s.answers.Create(ctx, answer)
	if errors.Is(err, repository.ErrReferenceNotFound) {
		return nil, model.NewQuestionNotFoundError(questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("回答の作成に失敗しました: %w", err)
	}

	slog.Info("answer created",
		slog.String("question_id", questionID),
		slog.String("answer_id", answer.ID),
		slog.String("user_id", auth.SubjectID()),
	)
	return answer, nil
}

// findQuestion はIDで質問を取得する。UUIDとして不正なIDや存在しないIDはQUESTION_NOT_FOUNDを返す。
func (s *Service) findQuestion(ctx context.Context, id string) (*model.ForumQuestion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewQuestionNotFoundError(id)
	}
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}
	if question == nil {
		return nil, model.NewQuestionNotFoundError(id)
	}
	return question, nil
}

// attachAnswers は質問群の回答を1回のクエリで取得して付与する。
func (s *Service) attachAnswers(ctx context.Context, questions ...*model.ForumQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	byQuestion, err := s.answers.ListByQuestionIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("回答の取得に失敗しました: %w", err)
	}

	for _, q := range questions {
		q.Answers = byQuestion[q.ID]
		if q.Answers == nil {
			q.Answers = []model.ForumAnswer{}
		}
	}
	return nil
}
