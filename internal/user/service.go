// Package user はユーザー（アカウント）管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
	"github.com/hitoshi/immal/internal/security"
	"github.com/hitoshi/immal/internal/validation"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// RegisterInput はユーザー登録の入力。
// diseasesは空配列を許容するが、項目自体の省略は許容しない。
type RegisterInput struct {
	Username  string   `json:"username" validate:"required,max=255"`
	Email     string   `json:"email" validate:"required,email,max=254"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	Birthdate string   `json:"birthdate" validate:"required,datetime=2006-01-02"`
	Country   string   `json:"country" validate:"required,max=100"`
	Diseases  []string `json:"diseases" validate:"required,dive,required,max=100"`
}

// Service はユーザー管理のサービス層。
type Service struct {
	identities repository.IdentityRepository
	passwords  PasswordHasher
	resolver   *access.Resolver
	validator  *validation.Validator
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	identities repository.IdentityRepository,
	passwords PasswordHasher,
	resolver *access.Resolver,
	validator *validation.Validator,
) *Service {
	return &Service{
		identities: identities,
		passwords:  passwords,
		resolver:   resolver,
		validator:  validator,
		now:        time.Now,
	}
}

// Register は入力を検証し、新規ユーザーを作成する。
// username / emailの重複はDUPLICATE_KEYを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.Identity, error) {
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	// datetimeタグで形式は検証済み
	birthdate, err := time.Parse("2006-01-02", input.Birthdate)
	if err != nil {
		return nil, model.NewValidationError(map[string]string{"birthdate": "日付はYYYY-MM-DD形式で入力してください。"})
	}
	country := input.Country

	identity, err := s.newIdentity(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	identity.Birthdate = &birthdate
	identity.Country = &country
	identity.Diseases = input.Diseases

	if err := s.create(ctx, identity); err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", identity.ID),
		slog.String("username", identity.Username),
	)
	return identity, nil
}

// CreateSuperuser はスタッフ権限とスーパーユーザー権限を持つユーザーを作成する。
func (s *Service) CreateSuperuser(ctx context.Context, username, email, password string) (*model.Identity, error) {
	input := struct {
		Username string `json:"username" validate:"required,max=255"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}{username, email, password}
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	identity, err := s.newIdentity(username, email, password)
	if err != nil {
		return nil, err
	}
	identity.IsStaff = true
	identity.IsSuperuser = true

	if err := s.create(ctx, identity); err != nil {
		return nil, err
	}

	slog.Info("superuser created",
		slog.String("user_id", identity.ID),
		slog.String("username", identity.Username),
	)
	return identity, nil
}

func (s *Service) newIdentity(username, email, password string) (*model.Identity, error) {
	hash, err := s.passwords.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return nil, model.NewValidationError(map[string]string{"password": "72バイト以内で入力してください。"})
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &model.Identity{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Diseases:     []string{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// create はユーザーを保存する。一意制約違反はDUPLICATE_KEYに変換する。
func (s *Service) create(ctx context.Context, identity *model.Identity) error {
	err := s.identities.Create(ctx, identity)
	var dup *model.DuplicateKeyError
	if errors.As(err, &dup) {
		return model.NewDuplicateKeyError(dup.Field)
	}
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) FindByUsername(ctx context.Context, username string) (*model.Identity, error) {
	return s.identities.FindByUsername(ctx, username)
}

// VerifyPassword はパスワードがユーザーのハッシュと一致するかを判定する。
func (s *Service) VerifyPassword(identity *model.Identity, plaintext string) bool {
	if identity == nil {
		return false
	}
	return s.passwords.Verify(identity.PasswordHash, plaintext)
}

// List は呼び出し元の可視範囲のユーザーをupdated_at降順で返す。
// スーパーユーザーは全件、それ以外は本人のみ。
func (s *Service) List(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.Identity], error) {
	decision := s.resolver.ScopeFor(auth, access.ResourceIdentity, access.ActionList)
	if err := decision.Err(); err != nil {
		return model.PageResult[*model.Identity]{}, err
	}

	identities, total, err := s.identities.List(ctx, decision.Scope, page)
	if err != nil {
		return model.PageResult[*model.Identity]{}, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return model.NewPageResult(identities, total, page)
}

// Get は指定IDのユーザーを返す。
// 可視範囲外のユーザーはFORBIDDEN、存在しないユーザーはUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, auth access.AuthContext, id string) (*model.Identity, error) {
	decision := s.resolver.ScopeFor(auth, access.ResourceIdentity, access.ActionRetrieve)
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if !decision.Scope.Includes(id) {
		return nil, model.NewForbiddenError("他のユーザーの情報は閲覧できません")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewUserNotFoundError()
	}

	identity, err := s.identities.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if identity == nil {
		return nil, model.NewUserNotFoundError()
	}
	return identity, nil
}

// Withdraw は呼び出し元ユーザーの退会処理を実行する。
// フォーラムの質問・回答は投稿者なしとして残り、感情ログはユーザーと共に削除される。
func (s *Service) Withdraw(ctx context.Context, auth access.AuthContext) error {
	decision := s.resolver.ScopeFor(auth, access.ResourceIdentity, access.ActionDelete)
	if err := decision.Err(); err != nil {
		return err
	}
	userID := auth.SubjectID()

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// users削除時にforum_questions / forum_answersはSET NULL、emotion_logsはCASCADE
	if err := s.identities.DeleteByID(ctx, userID); err != nil {
		// 同時に退会した場合など、すでに削除済み
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}

// NormalizeEmail はメールアドレスのドメイン部を小文字に正規化する。
// ローカル部は大文字小文字を区別するため変更しない。
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}
