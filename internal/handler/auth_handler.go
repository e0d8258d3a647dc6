package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, username, password string) (*model.SessionPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RegistrationServiceInterface はユーザー登録に必要なサービスインターフェース。
type RegistrationServiceInterface interface {
	Register(ctx context.Context, input user.RegisterInput) (*model.Identity, error)
}

// AuthHandler はログイン・登録・トークン再発行のHTTPハンドラー。
type AuthHandler struct {
	auth         AuthServiceInterface
	registration RegistrationServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(auth AuthServiceInterface, registration RegistrationServiceInterface) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
	}
}

// loginRequest はログインのリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// refreshRequest はトークン再発行のリクエストボディ。
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// accessResponse はトークン再発行のレスポンス。
type accessResponse struct {
	Access string `json:"access"`
}

// Login はユーザー名とパスワードでログインし、トークンの組を返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = "この項目は必須です。"
	}
	if req.Password == "" {
		fields["password"] = "この項目は必須です。"
	}
	if len(fields) > 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(fields))
		return
	}

	session, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:    toIdentityResponse(session.Identity),
		Refresh: session.RefreshToken,
		Access:  session.AccessToken,
	})
}

// Register は新規ユーザーを登録する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	identity, err := h.registration.Register(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
// POST /auth/token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"refresh": "この項目は必須です。",
		}))
		return
	}

	access, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accessResponse{Access: access})
}
