package store

import (
	"context"
	"fmt"
	"time"
)

// アップロードファイルの種別。
const (
	// FileKindProfileImage はプロフィール画像。ユーザーごとに1件のみ。
	FileKindProfileImage = "profile_image"
	// FileKindTenthMarksheet は中等教育修了証明書。ユーザーごとに1件のみ。
	FileKindTenthMarksheet = "tenth_marksheet"
	// FileKindInterCertificate は高等教育修了証明書。ユーザーごとに1件のみ。
	FileKindInterCertificate = "inter_certificate"
	// FileKindDegreeCertificate は学位証明書。ユーザーごとに1件のみ。
	FileKindDegreeCertificate = "degree_certificate"
	// FileKindOther はその他の書類。ユーザーごとに複数件を許可する。
	FileKindOther = "other"
)

// ValidFileKind は指定された文字列が有効なファイル種別かどうかを返す。
func ValidFileKind(kind string) bool {
	switch kind {
	case FileKindProfileImage, FileKindTenthMarksheet, FileKindInterCertificate,
		FileKindDegreeCertificate, FileKindOther:
		return true
	}
	return false
}

// File はアップロードファイルレコードを表す。
// 本体はbase64エンコードされた文字列としてDataに格納する。
type File struct {
	// ID はファイルの一意識別子。
	ID string
	// UserID はファイルを所有するユーザーのID。
	UserID string
	// Kind はファイル種別。
	Kind string
	// Filename はサーバー側で付与したファイル名。
	Filename string
	// OriginalName はアップロード時の元のファイル名。
	OriginalName string
	// MimeType はMIMEタイプ。
	MimeType string
	// Size はファイルサイズ（バイト）。
	Size int64
	// Data はbase64エンコードされたファイル本体。
	Data string
	// UploadedAt はアップロード日時。
	UploadedAt time.Time
}

// fileColumns はfilesテーブルのSELECT句。
const fileColumns = `id, user_id, kind, filename, original_name, mime_type, size, data, uploaded_at`

// scanFile は1行をFileにスキャンする。
func scanFile(row interface{ Scan(...any) error }) (File, error) {
	var f File
	err := row.Scan(
		&f.ID, &f.UserID, &f.Kind, &f.Filename, &f.OriginalName,
		&f.MimeType, &f.Size, &f.Data, &f.UploadedAt,
	)
	return f, err
}

// CreateFileParams はファイル作成のパラメータ。
type CreateFileParams struct {
	ID           string
	UserID       string
	Kind         string
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Data         string
}

// CreateFile は新しいファイルレコードを作成する。
// 種別ごとの件数制限は行わない。1件のみの種別にはReplaceFileを使うこと。
func (q *Queries) CreateFile(ctx context.Context, arg CreateFileParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO files (id, user_id, kind, filename, original_name, mime_type, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.Kind, arg.Filename, arg.OriginalName,
		arg.MimeType, arg.Size, arg.Data,
	)
	return err
}

// ReplaceFile は同一ユーザー・同一種別の既存ファイルを削除してから新しい
// ファイルを作成する。プロフィール画像のようにユーザーごとに1件のみの
// 種別で使用する。削除と作成は同一トランザクションで行う。
func (q *Queries) ReplaceFile(ctx context.Context, arg CreateFileParams) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE user_id = ? AND kind = ?`,
		arg.UserID, arg.Kind); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (id, user_id, kind, filename, original_name, mime_type, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.Kind, arg.Filename, arg.OriginalName,
		arg.MimeType, arg.Size, arg.Data,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetFileParams はファイル取得のパラメータ。所有者チェックを兼ねるため
// UserIDも条件に含める。
type GetFileParams struct {
	ID     string
	UserID string
}

// GetFile はIDと所有者でファイルを取得する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetFile(ctx context.Context, arg GetFileParams) (File, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+fileColumns+` FROM files WHERE id = ? AND user_id = ?`,
		arg.ID, arg.UserID,
	)
	return scanFile(row)
}

// ListFilesByUser はユーザーの全ファイルをアップロード順で取得する。
func (q *Queries) ListFilesByUser(ctx context.Context, userID string) ([]File, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files WHERE user_id = ? ORDER BY uploaded_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFileParams はファイル削除のパラメータ。
type DeleteFileParams struct {
	ID     string
	UserID string
}

// DeleteFile はIDと所有者でファイルを削除する。該当がない場合はsql.ErrNoRowsを返す。
func (q *Queries) DeleteFile(ctx context.Context, arg DeleteFileParams) error {
	return q.execAffectingOne(ctx, `DELETE FROM files WHERE id = ? AND user_id = ?`,
		arg.ID, arg.UserID)
}
