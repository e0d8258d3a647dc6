// Package catalog は病気情報の検索と引用の一覧を提供する。
// どちらも読み取り専用で、データはマイグレーションや管理ツールで投入される。
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hitoshi/immal/internal/model"
	"github.com/hitoshi/immal/internal/repository"
)

// Service はカタログ（病気情報・引用）のサービス層。
type Service struct {
	diseases repository.DiseaseRepository
	quotes   repository.QuoteRepository
	mediaURL string
}

// NewService はServiceの新しいインスタンスを生成する。
// baseURLとmediaURLは画像の絶対URLの組み立てに使用する。
func NewService(diseases repository.DiseaseRepository, quotes repository.QuoteRepository, baseURL, mediaURL string) *Service {
	return &Service{
		diseases: diseases,
		quotes:   quotes,
		mediaURL: joinURL(baseURL, mediaURL),
	}
}

// Search は名前に検索語を含む病気を大文字小文字を区別せずに返す。
// 検索語が空の場合はVALIDATION_ERROR、該当がない場合はDISEASE_NOT_FOUNDを返す。
func (s *Service) Search(ctx context.Context, query string) ([]*model.Disease, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidationError(map[string]string{"query": "検索語を指定してください。"})
	}

	diseases, err := s.diseases.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("病気情報の検索に失敗しました: %w", err)
	}
	if len(diseases) == 0 {
		return nil, model.NewDiseaseNotFoundError(query)
	}
	return diseases, nil
}

// ImageURL は病気画像の絶対URLを返す。画像がない場合は空文字列。
func (s *Service) ImageURL(d *model.Disease) string {
	if d == nil || d.ImagePath == nil || *d.ImagePath == "" {
		return ""
	}
	return joinURL(s.mediaURL, *d.ImagePath)
}

// ListQuotes は引用をすべて返す。
func (s *Service) ListQuotes(ctx context.Context) ([]*model.Quote, error) {
	quotes, err := s.quotes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("引用一覧の取得に失敗しました: %w", err)
	}
	return quotes, nil
}

// joinURL は区切りのスラッシュが重複・欠落しないように連結する。
// refが絶対URLの場合はrefをそのまま返す。
func joinURL(base, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if base == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
