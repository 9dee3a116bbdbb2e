// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの検証と認証済みユーザー（Principal）のコンテキストへの設定、
// ロールによるアクセス制限、パニックリカバリ、CORS設定を含む。
package middleware
