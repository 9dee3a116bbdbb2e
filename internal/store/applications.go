package store

import (
	"context"
	"time"
)

// 入学申込の審査状態。
const (
	// ApplicationStatusPending は未審査。
	ApplicationStatusPending = "pending"
	// ApplicationStatusReviewed は確認済み。
	ApplicationStatusReviewed = "reviewed"
	// ApplicationStatusApproved は承認済み。
	ApplicationStatusApproved = "approved"
	// ApplicationStatusRejected は不承認。
	ApplicationStatusRejected = "rejected"
)

// ValidApplicationStatus は指定された文字列が有効な審査状態かどうかを返す。
func ValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusPending, ApplicationStatusReviewed,
		ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application は入学申込レコードを表す。
type Application struct {
	// ID は申込の一意識別子。
	ID string
	// Name は申込者の氏名。
	Name string
	// Email は申込者のメールアドレス。
	Email string
	// Mobile は申込者の電話番号。
	Mobile string
	// Course は希望コース。
	Course string
	// Message は自由記述欄。
	Message string
	// Status は審査状態。
	Status string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// applicationColumns はapplicationsテーブルのSELECT句。
const applicationColumns = `id, name, email, mobile, course, message, status, created_at, updated_at`

// scanApplication は1行をApplicationにスキャンする。
func scanApplication(row interface{ Scan(...any) error }) (Application, error) {
	var a Application
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Mobile, &a.Course, &a.Message, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// CreateApplicationParams は入学申込作成のパラメータ。
type CreateApplicationParams struct {
	ID      string
	Name    string
	Email   string
	Mobile  string
	Course  string
	Message string
}

// CreateApplication は新しい入学申込を作成する。審査状態はpendingで開始する。
func (q *Queries) CreateApplication(ctx context.Context, arg CreateApplicationParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO applications (id, name, email, mobile, course, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Email, arg.Mobile, arg.Course, arg.Message,
	)
	return err
}

// GetApplicationByID はIDで入学申込を取得する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetApplicationByID(ctx context.Context, id string) (Application, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

// ListApplicationsParams は入学申込一覧取得のパラメータ。
type ListApplicationsParams struct {
	// Status は審査状態での絞り込み。空なら全状態。
	Status string
	// Search は氏名またはメールアドレスの部分一致検索文字列。空なら全件。
	Search string
	// Limit は取得件数の上限。
	Limit int64
	// Offset は取得開始位置。
	Offset int64
}

// ListApplications は入学申込の一覧を新しい順で取得する。
func (q *Queries) ListApplications(ctx context.Context, arg ListApplicationsParams) ([]Application, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%')
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`,
		arg.Status, arg.Status, arg.Search, arg.Search, arg.Search, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var apps []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// CountApplicationsParams は入学申込件数取得のパラメータ。
type CountApplicationsParams struct {
	// Status は審査状態での絞り込み。空なら全状態。
	Status string
	// Search は氏名またはメールアドレスの部分一致検索文字列。空なら全件。
	Search string
}

// CountApplications は条件に一致する入学申込の件数を返す。
func (q *Queries) CountApplications(ctx context.Context, arg CountApplicationsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%')`,
		arg.Status, arg.Status, arg.Search, arg.Search, arg.Search,
	).Scan(&count)
	return count, err
}

// ListRecentApplications は直近の入学申込を新しい順で取得する。
func (q *Queries) ListRecentApplications(ctx context.Context, limit int64) ([]Application, error) {
	return q.ListApplications(ctx, ListApplicationsParams{Limit: limit})
}

// UpdateApplicationStatusParams は審査状態更新のパラメータ。
type UpdateApplicationStatusParams struct {
	Status string
	ID     string
}

// UpdateApplicationStatus は入学申込の審査状態を更新する。
// 該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) UpdateApplicationStatus(ctx context.Context, arg UpdateApplicationStatusParams) error {
	return q.execAffectingOne(ctx, `
		UPDATE applications SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		arg.Status, arg.ID,
	)
}

// DeleteApplication は入学申込を削除する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) DeleteApplication(ctx context.Context, id string) error {
	return q.execAffectingOne(ctx, `DELETE FROM applications WHERE id = ?`, id)
}
