package handler

import (
	"time"

	"github.com/hitoshi/immal/internal/model"
)

// identityResponse はユーザーのレスポンス表現。パスワードハッシュと権限フラグは含めない。
type identityResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Diseases  []string  `json:"diseases"`
	Birthdate *string   `json:"birthdate"`
	Country   *string   `json:"country"`
	IsActive  bool      `json:"is_active"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

func toIdentityResponse(i *model.Identity) identityResponse {
	resp := identityResponse{
		ID:       i.ID,
		Username: i.Username,
		Email:    i.Email,
		Diseases: i.Diseases,
		Country:  i.Country,
		IsActive: i.IsActive,
		Created:  i.CreatedAt,
		Updated:  i.UpdatedAt,
	}
	if resp.Diseases == nil {
		resp.Diseases = []string{}
	}
	if i.Birthdate != nil {
		b := i.Birthdate.Format(time.DateOnly)
		resp.Birthdate = &b
	}
	return resp
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	User    identityResponse `json:"user"`
	Refresh string           `json:"refresh"`
	Access  string           `json:"access"`
}

// answerResponse は回答のレスポンス表現。
type answerResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toAnswerResponse(a *model.ForumAnswer) answerResponse {
	return answerResponse{
		ID:        a.ID,
		User:      a.Author(),
		Body:      a.Body,
		CreatedAt: a.CreatedAt,
	}
}

// questionResponse は質問のレスポンス表現。回答を作成日時の昇順で含む。
type questionResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Category  string           `json:"category"`
	CreatedAt time.Time        `json:"created_at"`
	User      string           `json:"user"`
	Answers   []answerResponse `json:"answers"`
}

func toQuestionResponse(q *model.ForumQuestion) questionResponse {
	resp := questionResponse{
		ID:        q.ID,
		Title:     q.Title,
		Body:      q.Body,
		Category:  string(q.Category),
		CreatedAt: q.CreatedAt,
		User:      q.Author(),
		Answers:   make([]answerResponse, 0, len(q.Answers)),
	}
	for i := range q.Answers {
		resp.Answers = append(resp.Answers, toAnswerResponse(&q.Answers[i]))
	}
	return resp
}

// emotionLogResponse は感情ログのレスポンス表現。
type emotionLogResponse struct {
	ID        string    `json:"id"`
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
}

func toEmotionLogResponse(e *model.EmotionLogEntry) emotionLogResponse {
	return emotionLogResponse{
		ID:        e.ID,
		Emotion:   string(e.Emotion),
		Timestamp: e.CreatedAt,
	}
}

// emotionStatsResponse は期間別の感情集計のレスポンス。
// 記録のない感情も0件として含める。
type emotionStatsResponse struct {
	Today     map[string]int `json:"today"`
	ThisWeek  map[string]int `json:"this_week"`
	ThisMonth map[string]int `json:"this_month"`
}

func toEmotionStatsResponse(s *model.EmotionStats) emotionStatsResponse {
	return emotionStatsResponse{
		Today:     toCounts(s.Today),
		ThisWeek:  toCounts(s.ThisWeek),
		ThisMonth: toCounts(s.ThisMonth),
	}
}

func toCounts(counts model.EmotionCounts) map[string]int {
	out := make(map[string]int, len(model.Emotions))
	for _, e := range model.Emotions {
		out[string(e)] = counts[e]
	}
	return out
}

// diseaseResponse は病気検索結果のレスポンス表現。画像は絶対URL。
type diseaseResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Symptoms    string  `json:"symptoms"`
	Treatments  string  `json:"treatments"`
	Image       *string `json:"image"`
}

// diseaseSearchResponse は病気検索のレスポンス。
type diseaseSearchResponse struct {
	Diseases []diseaseResponse `json:"diseases"`
}

// quoteResponse は引用のレスポンス表現。
type quoteResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	HolyBook string `json:"holy_book"`
	Verse    string `json:"verse"`
}

func toQuoteResponse(q *model.Quote) quoteResponse {
	return quoteResponse{
		ID:       q.ID,
		Text:     q.Text,
		HolyBook: q.HolyBook,
		Verse:    q.Verse,
	}
}
