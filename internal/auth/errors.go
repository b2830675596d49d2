package auth

import "github.com/yourusername/postboard/internal/apierr"

// 認証・認可のエラーコード
const (
	CodeMissingToken   = "MISSING_TOKEN"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeUnknownSubject = "UNKNOWN_SUBJECT"
	CodeForbidden      = "FORBIDDEN"
	CodeCSRFMissing    = "CSRF_MISSING"
	CodeCSRFInvalid    = "CSRF_INVALID"
)

func errMissingToken() error {
	return apierr.Unauthorized(CodeMissingToken, "ログインが必要です。")
}

func errInvalidToken() error {
	return apierr.Unauthorized(CodeInvalidToken, "トークンが無効か、有効期限が切れています。")
}

func errUnknownSubject() error {
	return apierr.Unauthorized(CodeUnknownSubject, "トークンのユーザーが存在しません。")
}

// ErrForbidden は所有者以外による変更操作を表します。
func ErrForbidden() error {
	return apierr.Forbidden(CodeForbidden, "この投稿を変更する権限がありません。")
}
