// Package validation はリクエスト構造体の入力検証を提供する。
// go-playground/validatorのタグで制約を宣言し、違反をJSONフィールド名ごとのメッセージに変換する。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/immal/internal/model"
)

// カスタムタグ
const (
	tagForumCategory = "forum_category"
	tagEmotion       = "emotion"
)

// messages はバリデーションタグごとのメッセージテンプレート。
// %s はタグのパラメータに置き換える。
var messages = map[string]string{
	"required":       "この項目は必須です。",
	"email":          "有効なメールアドレスを入力してください。",
	"min":            "%s文字以上で入力してください。",
	"max":            "%s文字以内で入力してください。",
	"datetime":       "日付は%s形式で入力してください。",
	"uuid":           "有効なIDを指定してください。",
	tagForumCategory: "選択肢に含まれないカテゴリです。",
	tagEmotion:       "選択肢に含まれない感情です。",
}

// Validator は構造体の入力検証を行う。
// 内部のvalidator.Validateは構造体情報をキャッシュし、並行利用しても安全。
type Validator struct {
	validate *validator.Validate
}

// New はカスタムタグを登録済みのValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのフィールド名をJSONタグ名にする
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// 登録に失敗するのはタグ名が空の場合のみ
	_ = v.RegisterValidation(tagForumCategory, func(fl validator.FieldLevel) bool {
		return model.IsValidForumCategory(fl.Field().String())
	})
	_ = v.RegisterValidation(tagEmotion, func(fl validator.FieldLevel) bool {
		return model.IsValidEmotion(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct は構造体を検証する。
// 違反がある場合はフィールドごとのメッセージを持つVALIDATION_ERRORを返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		name := e.Field()
		// 同一フィールドの違反は最初の1件のみ
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = message(e)
	}
	return model.NewValidationError(fields)
}

func message(e validator.FieldError) string {
	tmpl, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("値が不正です（%s）。", e.Tag())
	}
	if strings.Contains(tmpl, "%s") {
		param := e.Param()
		if e.Tag() == "datetime" {
			param = "YYYY-MM-DD"
		}
		return fmt.Sprintf(tmpl, param)
	}
	return tmpl
}

// FromDecodeError はJSONデコードエラーをVALIDATION_ERRORに変換する。
// 型の不一致はフィールド名付きで報告し、構文エラーはbodyキーで報告する。
func FromDecodeError(err error) *model.APIError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.NewValidationError(map[string]string{
			typeErr.Field: fmt.Sprintf("%s型の値を指定してください。", jsonTypeName(typeErr.Type)),
		})
	}
	return model.NewValidationError(map[string]string{
		"body": "リクエストボディのJSONを解析できません。",
	})
}

func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "文字列"
	case reflect.Bool:
		return "真偽値"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "数値"
	case reflect.Slice, reflect.Array:
		return "配列"
	case reflect.Pointer:
		return jsonTypeName(t.Elem())
	default:
		return "オブジェクト"
	}
}
