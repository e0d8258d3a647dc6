package model

import "time"

// Emotion は感情ログのタグ。
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionNeutral   Emotion = "neutral"
	EmotionSurprised Emotion = "surprised"
	EmotionDisgusted Emotion = "disgusted"
	EmotionFearful   Emotion = "fearful"
)

// Emotions は許可された感情タグの一覧。
var Emotions = []Emotion{
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionNeutral,
	EmotionSurprised,
	EmotionDisgusted,
	EmotionFearful,
}

// IsValidEmotion は感情タグが許可リストに含まれるかを判定する。
func IsValidEmotion(e string) bool {
	for _, v := range Emotions {
		if string(v) == e {
			return true
		}
	}
	return false
}

// EmotionLogEntry はユーザーが記録した感情ログ1件を表す。
// 所有者は必須で、所有者の削除時に一緒に削除される。
type EmotionLogEntry struct {
	ID        string
	UserID    string
	Emotion   Emotion
	CreatedAt time.Time
}

// EmotionCounts は感情タグごとの件数。
type EmotionCounts map[Emotion]int

// EmotionStats は期間別の感情集計。
type EmotionStats struct {
	Today     EmotionCounts
	ThisWeek  EmotionCounts
	ThisMonth EmotionCounts
}
