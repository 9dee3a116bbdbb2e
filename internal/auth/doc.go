// Package auth は認証・認可のコアを提供する。
//
// 構成要素:
//   - Hasher: bcryptによるパスワードの一方向ハッシュ化と検証
//   - TokenIssuer: 署名付き・有効期限付きのJWT Bearerトークンの発行と解析
//   - Service: 登録・ログインのオーケストレーションとトークンからの
//     認証済みユーザー（Principal）の解決
//
// 署名鍵はプロセス起動時に一度だけ読み込み、TokenIssuerの構築時に明示的に
// 渡す。実行中のローテーションは行わない。鍵を差し替えると発行済みの全
// トークンが無効になる（これが唯一の失効手段であり、トークン単位の失効
// リストは持たない）。
//
// エラーは本パッケージのセンチネルエラーに集約し、ストアやbcryptの内部
// エラーの詳細がHTTP境界を越えないようにする。
package auth
