package auth

import "errors"

// 認証・認可のエラー分類。HTTP境界ではこの分類だけを見てステータスコードに
// 変換し、内部エラーの詳細はログにのみ残す。
var (
	// ErrInvalidInput は必須フィールドの欠落を表す（HTTP 400）。
	ErrInvalidInput = errors.New("必須フィールドが不足している")
	// ErrAlreadyExists はメールアドレスの重複登録を表す（HTTP 409）。
	ErrAlreadyExists = errors.New("メールアドレスは既に登録されている")
	// ErrInvalidCredentials はログイン失敗を表す（HTTP 401）。
	// メールアドレス未登録とパスワード不一致を意図的に区別しない。
	// アカウントの存在を列挙攻撃から守るため。
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくない")
	// ErrTokenExpired はトークンの有効期限切れを表す（HTTP 401）。
	ErrTokenExpired = errors.New("トークンの有効期限が切れている")
	// ErrTokenInvalid は署名不正を含むトークンの検証失敗を表す（HTTP 401）。
	ErrTokenInvalid = errors.New("トークンが無効")
	// ErrPrincipalNotFound はトークンの発行後にユーザーが削除されたことを表す
	// （HTTP 401）。失効リストを持たないため、削除済みアカウントのトークンは
	// リクエストごとの存在確認でのみ検出できる。
	ErrPrincipalNotFound = errors.New("トークンに対応するユーザーが存在しない")
)
