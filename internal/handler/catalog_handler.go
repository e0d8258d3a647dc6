package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/immal/internal/model"
)

// CatalogServiceInterface は参照情報ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	Search(ctx context.Context, query string) ([]*model.Disease, error)
	ImageURL(d *model.Disease) string
	ListQuotes(ctx context.Context) ([]*model.Quote, error)
}

// CatalogHandler は病気検索と引用一覧のHTTPハンドラー。認証不要。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// SearchDiseases は名前の部分一致で病気を検索する。
// GET /api/search?query=xxx
func (h *CatalogHandler) SearchDiseases(w http.ResponseWriter, r *http.Request) {
	diseases, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := diseaseSearchResponse{Diseases: make([]diseaseResponse, 0, len(diseases))}
	for _, d := range diseases {
		dr := diseaseResponse{
			Name:        d.Name,
			Description: d.Description,
			Symptoms:    d.Symptoms,
			Treatments:  d.Treatments,
		}
		if image := h.service.ImageURL(d); image != "" {
			dr.Image = &image
		}
		resp.Diseases = append(resp.Diseases, dr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListQuotes は引用の一覧を返す。ページネーションしない。
// GET /quotes
func (h *CatalogHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.ListQuotes(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toQuoteResponse(q))
	}

	writeJSON(w, http.StatusOK, resp)
}
