package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/community"
	"github.com/hitoshi/immal/internal/model"
)

// QuestionServiceInterface はフォーラムハンドラーが必要とするサービスインターフェース。
type QuestionServiceInterface interface {
	ListQuestions(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.ForumQuestion], error)
	CreateQuestion(ctx context.Context, auth access.AuthContext, input community.QuestionInput) (*model.ForumQuestion, error)
	GetQuestion(ctx context.Context, auth access.AuthContext, id string) (*model.ForumQuestion, error)
	ReplaceQuestion(ctx context.Context, auth access.AuthContext, id string, input community.QuestionInput) (*model.ForumQuestion, error)
	PatchQuestion(ctx context.Context, auth access.AuthContext, id string, patch community.QuestionPatch) (*model.ForumQuestion, error)
	DeleteQuestion(ctx context.Context, auth access.AuthContext, id string) error
	CreateAnswer(ctx context.Context, auth access.AuthContext, questionID string, input community.AnswerInput) (*model.ForumAnswer, error)
}

// QuestionHandler はフォーラムの質問・回答のHTTPハンドラー。
type QuestionHandler struct {
	service   QuestionServiceInterface
	paginator *Paginator
}

// NewQuestionHandler はQuestionHandlerを生成する。
func NewQuestionHandler(service QuestionServiceInterface, paginator *Paginator) *QuestionHandler {
	return &QuestionHandler{
		service:   service,
		paginator: paginator,
	}
}

// List は質問の一覧を新しい順で返す。
// GET /community/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.paginator.Page(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.ListQuestions(r.Context(), access.FromContext(r.Context()), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPageResponse(h.paginator, r, result, toQuestionResponse))
}

// Create は質問を投稿する。未ログインの場合は匿名投稿になる。
// POST /community/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input community.QuestionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	question, err := h.service.CreateQuestion(r.Context(), access.FromContext(r.Context()), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuestionResponse(question))
}

// Get は質問を回答付きで返す。
// GET /community/questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.GetQuestion(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuestionResponse(question))
}

// Replace は質問の全項目を更新する。
// PUT /community/questions/{id}
func (h *QuestionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var input community.QuestionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	question, err := h.service.ReplaceQuestion(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuestionResponse(question))
}

// Patch は指定された項目のみ質問を更新する。
// PATCH /community/questions/{id}
func (h *QuestionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch community.QuestionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	question, err := h.service.PatchQuestion(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuestionResponse(question))
}

// Delete は質問を回答ごと削除する。
// DELETE /community/questions/{id}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateAnswer は質問に回答を投稿する。
// POST /community/questions/{id}/answer
func (h *QuestionHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var input community.AnswerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	answer, err := h.service.CreateAnswer(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAnswerResponse(answer))
}
