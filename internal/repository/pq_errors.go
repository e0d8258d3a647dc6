package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/immal/internal/model"
)

// PostgreSQLのSQLSTATEコード
const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

// uniqueConstraintFields は一意制約名から違反フィールド名への対応表。
var uniqueConstraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"diseases_name_key":  "name",
}

// translatePQError はPostgreSQLの制約違反をドメインのエラーに変換する。
// 一意制約違反は *model.DuplicateKeyError、外部キー違反は ErrReferenceNotFound になる。
// それ以外のエラーはそのまま返す。
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		field, ok := uniqueConstraintFields[pqErr.Constraint]
		if !ok {
			field = fieldFromConstraint(pqErr.Constraint)
		}
		return &model.DuplicateKeyError{Field: field}
	case pqForeignKeyViolation:
		return ErrReferenceNotFound
	}
	return err
}

// fieldFromConstraint は "<table>_<column>_key" 形式の制約名からカラム名を推定する。
func fieldFromConstraint(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// escapeLike はLIKEパターンのワイルドカード文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
