package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/emotion"
	"github.com/hitoshi/immal/internal/model"
)

// EmotionServiceInterface は感情ログハンドラーが必要とするサービスインターフェース。
// すべての操作は認証中のユーザー自身のログに限定される。
type EmotionServiceInterface interface {
	List(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.EmotionLogEntry], error)
	Create(ctx context.Context, auth access.AuthContext, input emotion.Input) (*model.EmotionLogEntry, error)
	Get(ctx context.Context, auth access.AuthContext, id string) (*model.EmotionLogEntry, error)
	Update(ctx context.Context, auth access.AuthContext, id string, input emotion.Input) (*model.EmotionLogEntry, error)
	Patch(ctx context.Context, auth access.AuthContext, id string, patch emotion.Patch) (*model.EmotionLogEntry, error)
	Delete(ctx context.Context, auth access.AuthContext, id string) error
	Stats(ctx context.Context, auth access.AuthContext) (*model.EmotionStats, error)
}

// EmotionHandler は感情ログのHTTPハンドラー。
type EmotionHandler struct {
	service   EmotionServiceInterface
	paginator *Paginator
}

// NewEmotionHandler はEmotionHandlerを生成する。
func NewEmotionHandler(service EmotionServiceInterface, paginator *Paginator) *EmotionHandler {
	return &EmotionHandler{
		service:   service,
		paginator: paginator,
	}
}

// List は自分の感情ログを新しい順で返す。
// GET /faceai/log
func (h *EmotionHandler) List(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, newPageResponse(h.paginator, r, result, toEmotionLogResponse))
}

// Create は感情ログを記録する。
// POST /faceai/log
func (h *EmotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input emotion.Input
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.service.Create(r.Context(), access.FromContext(r.Context()), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmotionLogResponse(entry))
}

// Get は感情ログを1件返す。
// GET /faceai/log/{id}
func (h *EmotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmotionLogResponse(entry))
}

// Update は感情タグを更新する。
// PUT /faceai/log/{id}
func (h *EmotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input emotion.Input
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.service.Update(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmotionLogResponse(entry))
}

// Patch は指定された場合のみ感情タグを更新する。
// PATCH /faceai/log/{id}
func (h *EmotionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch emotion.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}

	entry, err := h.service.Patch(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmotionLogResponse(entry))
}

// Delete は感情ログを削除する。
// DELETE /faceai/log/{id}
func (h *EmotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats は今日・直近7日・直近30日の感情別件数を返す。
// GET /faceai/log/stats
func (h *EmotionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmotionStatsResponse(stats))
}
