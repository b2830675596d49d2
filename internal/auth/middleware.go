package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/apierr"
)

// contextTokenFromSession はトークンがセッションクッキー由来であることを示します。
const contextTokenFromSession = "auth.tokenFromSession"

// RequireLogin はトークンを検証し、要求者の Identity を確定するミドルウェアを返します。
// 失敗時は必ず中断し、後続のハンドラーは実行されません。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromSession, err := m.extractToken(c)
		if err != nil {
			apierr.Respond(c, m.logger, err)
			return
		}

		userID, err := m.tokens.Verify(token)
		if err != nil {
			apierr.Respond(c, m.logger, errInvalidToken())
			return
		}

		user, err := m.users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			apierr.Respond(c, m.logger, apierr.Storage(err))
			return
		}
		if user == nil {
			apierr.Respond(c, m.logger, errUnknownSubject())
			return
		}

		c.Set(ContextIdentityKey, Identity{UserID: user.ID, Nickname: user.Nickname})
		c.Set(contextTokenFromSession, fromSession)
		c.Next()
	}
}

// extractToken は Authorization ヘッダー、無ければセッションからトークンを取り出します。
func (m *Manager) extractToken(c *gin.Context) (string, bool, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", false, errInvalidToken()
		}
		return token, false, nil
	}

	if session := sessionFrom(c); session != nil {
		if token, ok := session.Get(sessionKeyToken).(string); ok && token != "" {
			return token, true, nil
		}
	}
	return "", false, errMissingToken()
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
// セッションクッキーで認証された変更系リクエストにのみ適用されます。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) || !c.GetBool(contextTokenFromSession) {
			c.Next()
			return
		}

		session := sessionFrom(c)
		var expected string
		if session != nil {
			expected, _ = session.Get(sessionKeyCSRF).(string)
		}
		if expected == "" {
			apierr.Respond(c, m.logger, apierr.Forbidden(CodeCSRFMissing, "CSRF トークンが設定されていません。"))
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			apierr.Respond(c, m.logger, apierr.Forbidden(CodeCSRFInvalid, "CSRF トークンが一致しません。"))
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
