package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/immal/internal/model"
)

// pageQueryParam はページ番号のクエリパラメータ名。
const pageQueryParam = "page"

// Paginator はリクエストからページ指定を読み取り、一覧レスポンスを組み立てる。
type Paginator struct {
	baseURL  string
	pageSize int
}

// NewPaginator はPaginatorを生成する。pageSizeが1未満の場合は10件とする。
func NewPaginator(baseURL string, pageSize int) *Paginator {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Paginator{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
	}
}

// pageResponse はページネーションされた一覧のレスポンス。
type pageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Page はクエリパラメータからページ指定を読み取る。
// 未指定は1ページ目。整数でない値や1未満の値はPAGE_NOT_FOUNDとする。
// OFFSETがintに収まらないページ番号も存在しないページとして扱う。
func (p *Paginator) Page(r *http.Request) (model.Page, error) {
	raw := r.URL.Query().Get(pageQueryParam)
	if raw == "" {
		return model.Page{Number: 1, Size: p.pageSize}, nil
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 || number > math.MaxInt/p.pageSize {
		return model.Page{}, model.NewPageNotFoundError(raw)
	}
	return model.Page{Number: number, Size: p.pageSize}, nil
}

// link は同じ一覧の指定ページへの絶対URLを返す。
// 1ページ目はpageパラメータを付けない。
func (p *Paginator) link(r *http.Request, page int) *string {
	q := r.URL.Query()
	if page <= 1 {
		q.Del(pageQueryParam)
	} else {
		q.Set(pageQueryParam, strconv.Itoa(page))
	}
	u := p.baseURL + r.URL.Path
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return &u
}

// newPageResponse はPageResultの各要素をprojectで変換し、前後ページのリンクを付けたレスポンスを返す。
func newPageResponse[T, R any](p *Paginator, r *http.Request, result model.PageResult[T], project func(T) R) pageResponse[R] {
	resp := pageResponse[R]{
		Count:   result.Total,
		Results: make([]R, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Results = append(resp.Results, project(item))
	}
	if result.HasNext() {
		resp.Next = p.link(r, result.Page.Number+1)
	}
	if result.HasPrevious() {
		resp.Previous = p.link(r, result.Page.Number-1)
	}
	return resp
}
