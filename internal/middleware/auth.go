// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/auth"
	"github.com/hitoshi/immal/internal/model"
)

const bearerPrefix = "Bearer "

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// SubjectResolver はトークンのsubjectからAuthContextを構築するインターフェース。
// access.Resolverの部分集合として定義する。
type SubjectResolver interface {
	Resolve(ctx context.Context, subjectID string) (access.AuthContext, error)
}

// NewBearerAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// AuthContextをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーがない場合は匿名として後続に渡す。
// ヘッダーがあり検証に失敗した場合は、認証不要のルートであっても401を返す。
func NewBearerAuthMiddleware(verifier TokenVerifier, resolver SubjectResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(access.WithAuthContext(r.Context(), access.Anonymous())))
				return
			}

			// 1. Bearerトークンを取り出す
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				slog.Warn("malformed authorization header", slog.String("path", r.URL.Path))
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 2. 署名・有効期限・種別を検証
			subjectID, err := verifier.VerifyAccessToken(strings.TrimSpace(token))
			if err != nil {
				slog.Warn("access token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, auth.TokenAPIError(err))
				return
			}

			// 3. subjectが現存する有効なユーザーか確認
			authCtx, err := resolver.Resolve(r.Context(), subjectID)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
					return
				}
				slog.Error("failed to resolve token subject",
					slog.String("user_id", subjectID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			// 4. AuthContextをコンテキストに注入
			setLoggedUserID(r.Context(), authCtx.SubjectID())
			next.ServeHTTP(w, r.WithContext(access.WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// RequireAuth は匿名リクエストに401を返すミドルウェア。
// NewBearerAuthMiddlewareの後に配置する。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access.FromContext(r.Context()).IsAnonymous() {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
// 匿名の場合は空文字列とfalseを返す。
func UserIDFromContext(ctx context.Context) (string, bool) {
	id := access.FromContext(ctx).SubjectID()
	return id, id != ""
}
