// Package server は入学出願管理システムのHTTP APIを提供する。
//
// 公開エンドポイント（ユーザー登録・ログイン・入学申込の送信）、認証が必要な
// エンドポイント（プロフィール・証明書アップロード）、管理者専用エンドポイント
// （ダッシュボード・ユーザー管理・申込審査）の3層で構成する。
//
// 保護されたルートはAuthorizationヘッダーのBearerトークンで認証する。
// 管理者専用ルートはさらにロールチェックを重ねる。ロールはトークンの
// 埋め込み値ではなく、リクエストごとにストアから再解決した最新値を使う。
package server
