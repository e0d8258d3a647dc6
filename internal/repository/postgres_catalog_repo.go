package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/immal/internal/model"
)

// PostgresDiseaseRepo はPostgreSQLを使用した病気情報リポジトリ。
type PostgresDiseaseRepo struct {
	db *sql.DB
}

// NewPostgresDiseaseRepo はPostgresDiseaseRepoを生成する。
func NewPostgresDiseaseRepo(db *sql.DB) *PostgresDiseaseRepo {
	return &PostgresDiseaseRepo{db: db}
}

// SearchByName は名前に部分一致する病気を名前順で返す。
// クエリ中の % と _ はリテラルとして扱う。
func (r *PostgresDiseaseRepo) SearchByName(ctx context.Context, query string) ([]*model.Disease, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, symptoms, treatments, image_path
		 FROM diseases
		 WHERE name ILIKE '%' || $1 || '%'
		 ORDER BY name`,
		escapeLike(query),
	)
	if err != nil {
		return nil, fmt.Errorf("病気の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var diseases []*model.Disease
	for rows.Next() {
		d := &model.Disease{}
		var imagePath sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Symptoms, &d.Treatments, &imagePath); err != nil {
			return nil, fmt.Errorf("病気情報のスキャンに失敗しました: %w", err)
		}
		d.ImagePath = nullStringPtr(imagePath)
		diseases = append(diseases, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("検索結果の走査に失敗しました: %w", err)
	}

	return diseases, nil
}

// PostgresQuoteRepo はPostgreSQLを使用した引用リポジトリ。
type PostgresQuoteRepo struct {
	db *sql.DB
}

// NewPostgresQuoteRepo はPostgresQuoteRepoを生成する。
func NewPostgresQuoteRepo(db *sql.DB) *PostgresQuoteRepo {
	return &PostgresQuoteRepo{db: db}
}

// List はすべての引用を返す。
func (r *PostgresQuoteRepo) List(ctx context.Context) ([]*model.Quote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, holy_book, verse FROM quotes ORDER BY holy_book, verse, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("引用一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	quotes := []*model.Quote{}
	for rows.Next() {
		q := &model.Quote{}
		if err := rows.Scan(&q.ID, &q.Text, &q.HolyBook, &q.Verse); err != nil {
			return nil, fmt.Errorf("引用のスキャンに失敗しました: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("引用一覧の走査に失敗しました: %w", err)
	}

	return quotes, nil
}

// compile-time interface check
var (
	_ DiseaseRepository = (*PostgresDiseaseRepo)(nil)
	_ QuoteRepository   = (*PostgresQuoteRepo)(nil)
)
