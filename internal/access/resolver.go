// Package access はリソースごとの可視範囲・操作可否を判定する。
// 認可の分岐はすべてこのパッケージに集約し、各サービスは判定結果のスコープに従ってストアを操作する。
package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/immal/internal/metrics"
	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
)

// ResourceKind はアクセス対象のリソース種別。
type ResourceKind string

const (
	ResourceIdentity      ResourceKind = "identity"
	ResourceForumQuestion ResourceKind = "forum_question"
	ResourceForumAnswer   ResourceKind = "forum_answer"
	ResourceEmotionLog    ResourceKind = "emotion_log"
)

// Action はリソースに対する操作。
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Scope はリポジトリが操作してよいレコードの範囲。
type Scope = model.Scope

// AuthContext はリクエスト元の認証情報。値渡しで各サービスに渡す。
// ゼロ値は匿名ユーザーを表す。
type AuthContext struct {
	Identity     *model.Identity
	IsPrivileged bool
}

// Anonymous は匿名ユーザーのAuthContextを返す。
func Anonymous() AuthContext {
	return AuthContext{}
}

// Authenticated は指定ユーザーのAuthContextを返す。
func Authenticated(identity *model.Identity) AuthContext {
	return AuthContext{Identity: identity, IsPrivileged: identity.IsPrivileged()}
}

// IsAnonymous は未認証かどうかを返す。
func (a AuthContext) IsAnonymous() bool {
	return a.Identity == nil
}

// SubjectID は認証済みユーザーのIDを返す。匿名の場合は空文字列。
func (a AuthContext) SubjectID() string {
	if a.Identity == nil {
		return ""
	}
	return a.Identity.ID
}

// Decision はアクセス判定の結果。
type Decision struct {
	Allowed bool
	Scope   Scope
	Reason  string
	// anonymous は拒否時にUNAUTHORIZEDとFORBIDDENを区別するために保持する
	anonymous bool
}

// Err は拒否の場合にAPIエラーを返す。許可の場合はnil。
// 匿名ユーザーの拒否はUNAUTHORIZED、認証済みユーザーの拒否はFORBIDDENになる。
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.anonymous {
		return model.NewUnauthorizedError()
	}
	return model.NewForbiddenError(d.Reason)
}

// Resolver はアクセス判定を行う。
type Resolver struct {
	identities repository.IdentityRepository
	metrics    metrics.MetricsCollector
}

// NewResolver はResolverを生成する。metricsはnilでもよい。
func NewResolver(identities repository.IdentityRepository, collector metrics.MetricsCollector) *Resolver {
	return &Resolver{identities: identities, metrics: collector}
}

// Resolve はトークンのsubjectからAuthContextを構築する。
// ユーザーが存在しない、または無効化されている場合はINVALID_TOKENを返す。
func (r *Resolver) Resolve(ctx context.Context, subjectID string) (AuthContext, error) {
	identity, err := r.identities.FindByID(ctx, subjectID)
	if err != nil {
		return AuthContext{}, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	if identity == nil || !identity.IsActive {
		slog.Warn("token subject is missing or inactive", slog.String("user_id", subjectID))
		return AuthContext{}, model.NewInvalidTokenError()
	}
	return Authenticated(identity), nil
}

// ScopeFor はリソース種別と操作に対するアクセス可否と可視範囲を判定する。
//
//   - identity: 未認証は拒否。スーパーユーザーは全件、それ以外は本人のみ。
//   - forum_question / forum_answer: 参照・作成は誰でも可。更新・削除は認証必須（所有者は問わない）。
//   - emotion_log: 認証必須。権限に関わらず常に本人のログのみ。
func (r *Resolver) ScopeFor(auth AuthContext, kind ResourceKind, action Action) Decision {
	d := decide(auth, kind, action)
	if !d.Allowed {
		if r.metrics != nil {
			r.metrics.RecordScopeDenial(string(kind), string(action))
		}
		slog.Warn("access denied",
			slog.String("resource", string(kind)),
			slog.String("action", string(action)),
			slog.String("user_id", auth.SubjectID()),
			slog.String("reason", d.Reason),
		)
	}
	return d
}

func decide(auth AuthContext, kind ResourceKind, action Action) Decision {
	switch kind {
	case ResourceIdentity:
		if auth.IsAnonymous() {
			return deny(auth, "認証が必要です")
		}
		if auth.IsPrivileged {
			return allow(model.ScopeAll())
		}
		return allow(model.ScopeOwner(auth.SubjectID()))

	case ResourceForumQuestion, ResourceForumAnswer:
		switch action {
		case ActionList, ActionRetrieve, ActionCreate:
			return allow(model.ScopeAll())
		case ActionUpdate, ActionDelete:
			if auth.IsAnonymous() {
				return deny(auth, "認証が必要です")
			}
			return allow(model.ScopeAll())
		}

	case ResourceEmotionLog:
		if auth.IsAnonymous() {
			return deny(auth, "認証が必要です")
		}
		return allow(model.ScopeOwner(auth.SubjectID()))
	}

	return deny(auth, fmt.Sprintf("未定義の操作です: %s %s", kind, action))
}

func allow(scope Scope) Decision {
	return Decision{Allowed: true, Scope: scope}
}

func deny(auth AuthContext, reason string) Decision {
	return Decision{Reason: reason, anonymous: auth.IsAnonymous()}
}

type contextKey struct{}

// WithAuthContext はAuthContextを格納したcontextを返す。
func WithAuthContext(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// FromContext はcontextからAuthContextを取り出す。格納されていない場合は匿名を返す。
func FromContext(ctx context.Context) AuthContext {
	auth, _ := ctx.Value(contextKey{}).(AuthContext)
	return auth
}
