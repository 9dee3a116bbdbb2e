package store

import (
	"context"
	"errors"
	"time"
)

// ユーザーのロール。
const (
	// RoleUser は一般ユーザー。
	RoleUser = "user"
	// RoleAdmin は管理者。管理コンソールへのアクセスを許可する。
	RoleAdmin = "admin"
)

// ErrDuplicateEmail は登録済みメールアドレスでの重複登録を表す。
var ErrDuplicateEmail = errors.New("メールアドレスが既に登録されている")

// User はユーザーレコードを表す。
// PasswordHashはストア境界の外（HTTPレスポンス、トークン）には決して出さない。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// Name は表示名。
	Name string
	// Email はログインに使用するメールアドレス。
	Email string
	// PasswordHash はbcryptでハッシュ化されたパスワード。
	PasswordHash string
	// Role はロール（RoleUser または RoleAdmin）。
	Role string
	// Phone は電話番号。
	Phone string
	// AddressStreet は住所（番地）。
	AddressStreet string
	// AddressCity は住所（市区町村）。
	AddressCity string
	// AddressState は住所（都道府県・州）。
	AddressState string
	// AddressZipCode は郵便番号。
	AddressZipCode string
	// AddressCountry は国名。
	AddressCountry string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// userColumns はusersテーブルのSELECT句。スキャン順序はscanUserと同期すること。
const userColumns = `id, name, email, password_hash, role, phone,
	address_street, address_city, address_state, address_zip_code, address_country,
	created_at, updated_at`

// scanUser は1行をUserにスキャンする。
func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone,
		&u.AddressStreet, &u.AddressCity, &u.AddressState, &u.AddressZipCode, &u.AddressCountry,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams はユーザー作成のパラメータ。
type CreateUserParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// CreateUser は新しいユーザーを作成する。
// メールアドレスが既に登録されている場合（大文字小文字の違いを含む）は
// ErrDuplicateEmailを返す。同時登録の競合もこのエラーに収束する。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Email, arg.PasswordHash, arg.Role,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// GetUserByEmail はメールアドレスでユーザーを取得する。
// 列がCOLLATE NOCASEのため、大文字小文字を区別せずに一致する。
// 該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByID はIDでユーザーを取得する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListUsersParams はユーザー一覧取得のパラメータ。
type ListUsersParams struct {
	// Search は名前またはメールアドレスの部分一致検索文字列。空なら全件。
	Search string
	// Limit は取得件数の上限。
	Limit int64
	// Offset は取得開始位置。
	Offset int64
}

// ListUsers は一般ユーザーの一覧を新しい順で取得する。管理者は含めない。
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role != ?
		  AND (? = '' OR name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%')
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`,
		RoleAdmin, arg.Search, arg.Search, arg.Search, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers は検索条件に一致する一般ユーザー数を返す。管理者は数えない。
func (q *Queries) CountUsers(ctx context.Context, search string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE role != ?
		  AND (? = '' OR name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%')`,
		RoleAdmin, search, search, search,
	).Scan(&count)
	return count, err
}

// ListRecentUsers は直近に登録された一般ユーザーを新しい順で取得する。
func (q *Queries) ListRecentUsers(ctx context.Context, limit int64) ([]User, error) {
	return q.ListUsers(ctx, ListUsersParams{Limit: limit})
}

// UpdateUserRoleParams はロール更新のパラメータ。
type UpdateUserRoleParams struct {
	Role string
	ID   string
}

// UpdateUserRole はユーザーのロールを更新する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	return q.execAffectingOne(ctx, `
		UPDATE users SET role = ?, updated_at = datetime('now') WHERE id = ?`,
		arg.Role, arg.ID,
	)
}

// UpdateUserProfileParams はプロフィール更新のパラメータ。
type UpdateUserProfileParams struct {
	Name           string
	Phone          string
	AddressStreet  string
	AddressCity    string
	AddressState   string
	AddressZipCode string
	AddressCountry string
	ID             string
}

// UpdateUserProfile はユーザーのプロフィール情報を更新する。
// 該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	return q.execAffectingOne(ctx, `
		UPDATE users
		SET name = ?, phone = ?,
		    address_street = ?, address_city = ?, address_state = ?,
		    address_zip_code = ?, address_country = ?,
		    updated_at = datetime('now')
		WHERE id = ?`,
		arg.Name, arg.Phone,
		arg.AddressStreet, arg.AddressCity, arg.AddressState,
		arg.AddressZipCode, arg.AddressCountry,
		arg.ID,
	)
}

// DeleteUser はユーザーを削除する。該当がない場合はsql.ErrNoRowsを返す。
// 所有するファイルは外部キー制約のON DELETE CASCADEで一緒に削除される。
func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	return q.execAffectingOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}
