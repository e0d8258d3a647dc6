package model

// Disease は病気の参照情報を表す。検索専用。
type Disease struct {
	ID          string
	Name        string
	Description string
	Symptoms    string
	Treatments  string
	ImagePath   *string // メディアディレクトリからの相対パス
}

// Quote は聖典からの引用を表す。一覧表示専用。
type Quote struct {
	ID       string
	Text     string
	HolyBook string
	Verse    string
}
