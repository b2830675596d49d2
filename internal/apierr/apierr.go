// Package apierr はAPI全体で共有するエラー分類とレスポンス変換を提供します。
package apierr

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind はエラーの分類です。HTTPステータスとの対応を決めます。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindStorage
)

// Error はクライアントへ返すコードとメッセージを持つエラーです。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status はエラー分類に対応するHTTPステータスを返します。
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		// リクエスト検証エラーは 400 ではなく 412 を返す取り決め
		return http.StatusPreconditionFailed
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Storage はストレージ層の失敗を包みます。詳細はログにのみ残ります。
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: "INTERNAL_ERROR", Message: internalMessage, Err: err}
}

const internalMessage = "サーバー内部でエラーが発生しました。"

// Respond は err を {"code","message"} 形式のJSONに変換して書き込みます。
// 既に中断済みのコンテキストでもレスポンスは1回だけ書かれます。
func Respond(c *gin.Context, logger *log.Logger, err error) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Kind != KindStorage:
		c.AbortWithStatusJSON(apiErr.Status(), gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		logf(logger, "%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": internalMessage,
		})
	}
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
