package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/nao1215/enroll/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// Open はSQLiteデータベースを開き、マイグレーションを適用する。
// pathには ":memory:"（テスト用）またはファイルパスを指定する。
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	// PRAGMAはコネクション単位にしか効かず、":memory:"はコネクションごとに
	// 別のデータベースになるため、コネクションを1つに固定する。
	// SQLiteは書き込みが単一ライターなので実用上の制約にはならない。
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%sの設定に失敗: %w", pragma, err)
		}
	}

	if err := migration.Run(db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return db, nil
}

// Queries はデータベースへのクエリ実行オブジェクト。
type Queries struct {
	db *sql.DB
}

// New は新しいQueriesを生成する。
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// isUniqueViolation はUNIQUE制約違反のエラーかどうかを判定する。
// modernc.org/sqliteは制約違反を専用のエラー型で公開しないため、
// メッセージの照合で判定する。
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execAffectingOne は1行に影響することを期待するSQLを実行する。
// 影響行数が0の場合はsql.ErrNoRowsを返す。
func (q *Queries) execAffectingOne(ctx context.Context, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
