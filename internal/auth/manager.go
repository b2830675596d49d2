package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/apierr"
	"github.com/yourusername/postboard/internal/models"
	"github.com/yourusername/postboard/internal/validate"
)

const (
	SessionCookieName = "pb_session"
	sessionKeyToken   = "auth_token"
	sessionKeyCSRF    = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

// UserFinder は認証ゲートがトークンの主体を解決するためのストアです。
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Manager は認証のHTTPハンドラーとミドルウェアをまとめた構造体です。
type Manager struct {
	service *Service
	tokens  *TokenIssuer
	users   UserFinder
	logger  *log.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(service *Service, tokens *TokenIssuer, users UserFinder, logger *log.Logger) *Manager {
	return &Manager{
		service: service,
		tokens:  tokens,
		users:   users,
		logger:  logger,
	}
}

type signupRequest struct {
	Nickname        *string `json:"nickname"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

type loginRequest struct {
	Nickname *string `json:"nickname"`
	Password *string `json:"password"`
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, m.logger, apierr.Validation(validate.CodeMissingField, validate.MsgInvalidFormat))
		return
	}
	if err := validate.Present(
		validate.Field{Name: "nickname", Value: req.Nickname},
		validate.Field{Name: "password", Value: req.Password},
		validate.Field{Name: "confirmPassword", Value: req.ConfirmPassword},
	); err != nil {
		apierr.Respond(c, m.logger, err)
		return
	}

	if _, err := m.service.Signup(c.Request.Context(), *req.Nickname, *req.Password, *req.ConfirmPassword); err != nil {
		apierr.Respond(c, m.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "会員登録が完了しました。"})
}

// Login は POST /login のハンドラーです。
// トークンはレスポンスボディで返し、ブラウザ向けにセッションにも保存します。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, m.logger, apierr.Validation(validate.CodeLoginFailed, validate.MsgLoginFailed))
		return
	}
	if err := validate.PresentOr(validate.CodeLoginFailed, validate.MsgLoginFailed,
		validate.Field{Name: "nickname", Value: req.Nickname},
		validate.Field{Name: "password", Value: req.Password},
	); err != nil {
		apierr.Respond(c, m.logger, err)
		return
	}

	token, _, err := m.service.Login(c.Request.Context(), *req.Nickname, *req.Password)
	if err != nil {
		apierr.Respond(c, m.logger, err)
		return
	}

	csrf, err := generateCSRFToken()
	if err != nil {
		apierr.Respond(c, m.logger, apierr.Storage(err))
		return
	}

	if session := sessionFrom(c); session != nil {
		session.Set(sessionKeyToken, token)
		session.Set(sessionKeyCSRF, csrf)
		if err := session.Save(); err != nil {
			apierr.Respond(c, m.logger, apierr.Storage(err))
			return
		}
		c.Header(csrfHeader, csrf)
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout は POST /logout のハンドラーです。RequireLogin と VerifyCSRF の後に置きます。
// セッションクッキーを消すだけで、発行済みトークンは有効期限まで有効です。
func (m *Manager) Logout(c *gin.Context) {
	if session := sessionFrom(c); session != nil {
		session.Clear()
		session.Options(sessions.Options{Path: "/", MaxAge: -1})
		if err := session.Save(); err != nil {
			apierr.Respond(c, m.logger, apierr.Storage(err))
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// sessionFrom はセッションミドルウェアが無い場合に nil を返します。
func sessionFrom(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
