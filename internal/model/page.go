package model

import "strconv"

// Page はページ番号ベースのページネーション指定。
// Numberは1始まり。
type Page struct {
	Number int
	Size   int
}

// Offset はSQLのOFFSETに渡す値を返す。
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// PageResult はページネーションされた一覧の結果。
type PageResult[T any] struct {
	Items []T
	Total int
	Page  Page
}

// HasNext は次のページが存在するかを返す。
func (r PageResult[T]) HasNext() bool {
	return r.Page.Number*r.Page.Size < r.Total
}

// HasPrevious は前のページが存在するかを返す。
func (r PageResult[T]) HasPrevious() bool {
	return r.Page.Number > 1
}

// OutOfRange は2ページ目以降で結果が空の場合にtrueを返す。
// 1ページ目は0件でも有効なページとして扱う。
func (r PageResult[T]) OutOfRange() bool {
	return r.Page.Number > 1 && len(r.Items) == 0
}

// NewPageResult はリポジトリの取得結果からPageResultを構築する。
// 範囲外のページの場合はPAGE_NOT_FOUNDを返す。
func NewPageResult[T any](items []T, total int, page Page) (PageResult[T], error) {
	r := PageResult[T]{Items: items, Total: total, Page: page}
	if r.Items == nil {
		r.Items = []T{}
	}
	if r.OutOfRange() {
		return PageResult[T]{}, NewPageNotFoundError(strconv.Itoa(page.Number))
	}
	return r, nil
}
