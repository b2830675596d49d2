// Package validate はサインアップ・ログイン・投稿入力の検証ルールを提供します。
//
// ルールはフィールドごとの順序付きリストとして宣言し、最初に失敗したルールの
// コードとメッセージだけを返します（全違反の集約はしません）。
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/yourusername/postboard/internal/apierr"
)

// エラーコード
const (
	CodeMissingField             = "MISSING_FIELD"
	CodeNicknameTooShort         = "NICKNAME_TOO_SHORT"
	CodeNicknameInvalidChars     = "NICKNAME_INVALID_CHARS"
	CodePasswordTooShort         = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong          = "PASSWORD_TOO_LONG"
	CodePasswordMismatch         = "PASSWORD_MISMATCH"
	CodePasswordContainsNickname = "PASSWORD_CONTAINS_NICKNAME"
	CodeNicknameTaken            = "NICKNAME_TAKEN"
	CodeLoginFailed              = "LOGIN_FAILED"
	CodeTitleRequired            = "TITLE_REQUIRED"
	CodeContentRequired          = "CONTENT_REQUIRED"
)

const (
	NicknameMinLength = 3
	PasswordMinLength = 4
	// PasswordMaxBytes は bcrypt が扱える入力の上限です。
	PasswordMaxBytes = 72
)

// メッセージ
const (
	MsgInvalidFormat            = "リクエストのデータ形式が正しくありません。"
	MsgLoginFailed              = "ログインに失敗しました。"
	MsgNicknameTaken            = "既に使われているニックネームです。"
	MsgPasswordContainsNickname = "パスワードにニックネームが含まれています。"
)

type rule struct {
	code    string
	message string
	ok      func(value string) bool
}

func notEmpty(value string) bool { return value != "" }

func minLen(n int) func(string) bool {
	return func(value string) bool { return utf8.RuneCountInString(value) >= n }
}

func maxBytes(n int) func(string) bool {
	return func(value string) bool { return len(value) <= n }
}

func alphanumeric(value string) bool {
	for i := 0; i < len(value); i++ {
		b := value[i]
		if !('a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9') {
			return false
		}
	}
	return true
}

var (
	nicknameRules = []rule{
		{CodeMissingField, "ニックネームは必須項目です。", notEmpty},
		{CodeNicknameInvalidChars, "ニックネームには英字と数字のみ使用できます。", alphanumeric},
		{CodeNicknameTooShort, "ニックネームは3文字以上である必要があります。", minLen(NicknameMinLength)},
	}
	passwordRules = []rule{
		{CodeMissingField, "パスワードは必須項目です。", notEmpty},
		{CodePasswordTooShort, "パスワードは4文字以上である必要があります。", minLen(PasswordMinLength)},
		{CodePasswordTooLong, "パスワードは72バイト以内である必要があります。", maxBytes(PasswordMaxBytes)},
	}
	confirmPasswordRules = []rule{
		{CodeMissingField, "パスワード（確認）は必須項目です。", notEmpty},
	}
	loginRules = []rule{
		{CodeLoginFailed, MsgLoginFailed, notEmpty},
	}
	titleRules = []rule{
		{CodeTitleRequired, "投稿タイトルの形式が正しくありません。", notEmpty},
	}
	contentRules = []rule{
		{CodeContentRequired, "投稿内容の形式が正しくありません。", notEmpty},
	}
)

type check struct {
	value string
	rules []rule
}

func run(checks ...check) error {
	for _, c := range checks {
		for _, r := range c.rules {
			if !r.ok(c.value) {
				return apierr.Validation(r.code, r.message)
			}
		}
	}
	return nil
}

// Signup はサインアップ入力のスキーマを検証します。
func Signup(nickname, password, confirmPassword string) error {
	if err := run(
		check{nickname, nicknameRules},
		check{password, passwordRules},
		check{confirmPassword, confirmPasswordRules},
	); err != nil {
		return err
	}
	if confirmPassword != password {
		return apierr.Validation(CodePasswordMismatch, "パスワードと一致している必要があります。")
	}
	return nil
}

// PasswordExcludesNickname はパスワードがニックネームを部分文字列として含まないことを確認します。
// 大文字小文字を区別するリテラル比較です。
func PasswordExcludesNickname(nickname, password string) error {
	if strings.Contains(password, nickname) {
		return apierr.Validation(CodePasswordContainsNickname, MsgPasswordContainsNickname)
	}
	return nil
}

// Login はログイン入力を検証します。どの項目の失敗でも同じメッセージを返します。
func Login(nickname, password string) error {
	return run(check{nickname, loginRules}, check{password, loginRules})
}

// Post は投稿の作成・更新入力を検証します。
func Post(title, content string) error {
	return run(check{title, titleRules}, check{content, contentRules})
}

// Field はリクエストボディ上の項目です。Value が nil なら未送信を表します。
type Field struct {
	Name  string
	Value *string
}

// Present は未送信の項目があれば MISSING_FIELD を返します。
// 未送信時のコードとメッセージを差し替えたい場合は PresentOr を使います。
func Present(fields ...Field) error {
	return PresentOr(CodeMissingField, MsgInvalidFormat, fields...)
}

// PresentOr は Present と同じ判定を指定のコードとメッセージで行います。
func PresentOr(code, message string, fields ...Field) error {
	for _, f := range fields {
		if f.Value == nil {
			return apierr.Validation(code, message)
		}
	}
	return nil
}
