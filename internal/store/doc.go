// Package store はSQLiteデータベースへの永続化層を提供する。
//
// ユーザー（認証情報を含む）、入学申込、アップロードファイルの3種類の
// レコードを管理する。クエリはQueries構造体のメソッドとして提供し、
// スキーマはpkg/migrationでバージョン管理されたマイグレーションとして適用する。
//
// メールアドレスの一意性（大文字小文字を区別しない）はUNIQUEインデックスで
// 保証する。同時登録の競合はデータベース側で解決され、敗者には
// ErrDuplicateEmailが返る。
package store
