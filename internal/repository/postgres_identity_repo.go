package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/immal/internal/model"
)

const identityColumns = `id, username, email, password_hash, birthdate, country, diseases,
		        is_active, is_staff, is_superuser, last_login, created_at, updated_at`

// PostgresIdentityRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*model.Identity, error) {
	identity := &model.Identity{}
	var (
		birthdate, lastLogin sql.NullTime
		country              sql.NullString
		diseases             pq.StringArray
	)

	err := row.Scan(
		&identity.ID, &identity.Username, &identity.Email, &identity.PasswordHash,
		&birthdate, &country, &diseases,
		&identity.IsActive, &identity.IsStaff, &identity.IsSuperuser,
		&lastLogin, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Birthdate = nullTimePtr(birthdate)
	identity.Country = nullStringPtr(country)
	identity.LastLogin = nullTimePtr(lastLogin)
	identity.Diseases = []string(diseases)
	if identity.Diseases == nil {
		identity.Diseases = []string{}
	}

	return identity, nil
}

// Create はユーザーを1回のINSERTで作成する。
// 一意性はusers_username_key / users_email_key制約で保証し、事前の存在確認は行わない。
func (r *PostgresIdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	diseases := identity.Diseases
	if diseases == nil {
		diseases = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, birthdate, country, diseases,
		                    is_active, is_staff, is_superuser, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		identity.ID, identity.Username, identity.Email, identity.PasswordHash,
		identity.Birthdate, identity.Country, pq.Array(diseases),
		identity.IsActive, identity.IsStaff, identity.IsSuperuser,
		identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translatePQError(err))
	}

	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return identity, nil
}

// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByUsername(ctx context.Context, username string) (*model.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM users WHERE username = $1`,
		username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return identity, nil
}

// List はスコープ内のユーザーをupdated_at降順で返す。
// scope.Allがfalseの場合はOwnerID本人のレコードのみを対象とする。
func (r *PostgresIdentityRepo) List(ctx context.Context, scope model.Scope, page model.Page) ([]*model.Identity, int, error) {
	// $1がNULLの場合は全件
	var owner sql.NullString
	if !scope.All {
		owner = sql.NullString{String: scope.OwnerID, Valid: true}
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE $1::uuid IS NULL OR id = $1::uuid`,
		owner,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+identityColumns+`
		 FROM users
		 WHERE $1::uuid IS NULL OR id = $1::uuid
		 ORDER BY updated_at DESC, id
		 LIMIT $2 OFFSET $3`,
		owner, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	identities := make([]*model.Identity, 0, page.Size)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return identities, total, nil
}

// UpdateLastLogin は最終ログイン日時を更新する。
// updated_atは変更しない。
func (r *PostgresIdentityRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// forum_questions / forum_answersのuser_idはSET NULL、emotion_logsはCASCADE削除される。
func (r *PostgresIdentityRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	return nil
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
