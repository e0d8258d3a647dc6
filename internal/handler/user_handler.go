package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.Identity], error)
	Get(ctx context.Context, auth access.AuthContext, id string) (*model.Identity, error)
	// Withdraw は認証中のユーザーを削除する。感情ログは一緒に削除され、投稿は匿名化される。
	Withdraw(ctx context.Context, auth access.AuthContext) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	paginator *Paginator
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, paginator *Paginator) *UserHandler {
	return &UserHandler{
		service:   service,
		paginator: paginator,
	}
}

// List は閲覧可能なユーザーの一覧を返す。一般ユーザーは自分のみ。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.paginator.Page(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), access.FromContext(r.Context()), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPageResponse(h.paginator, r, result, toIdentityResponse))
}

// Get は指定ユーザーを返す。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "id"))
}

// Me は認証中のユーザー自身を返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, access.FromContext(r.Context()).SubjectID())
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	identity, err := h.service.Get(r.Context(), access.FromContext(r.Context()), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Withdraw(r.Context(), access.FromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
