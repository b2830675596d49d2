package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/apierr"
)

// ContextIdentityKey は認証ゲートが確定した Identity を保持するキーです。
const ContextIdentityKey = "auth.identity"

// Identity は認証済みの要求者です。1リクエストの間だけ有効です。
type Identity struct {
	UserID   string
	Nickname string
}

// IdentityFrom は RequireLogin が確定した Identity を取り出します。
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && id.UserID != ""
}

// WithIdentity は Identity を明示的な引数として受け取るハンドラーを gin.HandlerFunc に変換します。
// RequireLogin を通っていないリクエストではハンドラーを呼ばずに 401 を返します。
func WithIdentity(h func(c *gin.Context, id Identity)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			apierr.Respond(c, nil, errMissingToken())
			return
		}
		h(c, id)
	}
}
