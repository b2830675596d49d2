package posts

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/apierr"
	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/validate"
)

// Handler は投稿APIのHTTPハンドラーです。
type Handler struct {
	service *Service
	logger  *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(service *Service, logger *log.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes は公開ルートを public に、変更系ルートを protected に登録します。
// protected には認証ゲートが適用済みである必要があります。
func (h *Handler) RegisterRoutes(public, protected gin.IRoutes) {
	public.GET("/posts", h.List)
	public.GET("/posts/:postId", h.Get)
	protected.POST("/posts", auth.WithIdentity(h.Create))
	protected.PUT("/posts/:postId", auth.WithIdentity(h.Update))
	protected.DELETE("/posts/:postId", auth.WithIdentity(h.Delete))
}

type postRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *Handler) bind(c *gin.Context) (title, content string, ok bool) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, h.logger, apierr.Validation(validate.CodeMissingField, validate.MsgInvalidFormat))
		return "", "", false
	}
	if err := validate.Present(
		validate.Field{Name: "title", Value: req.Title},
		validate.Field{Name: "content", Value: req.Content},
	); err != nil {
		apierr.Respond(c, h.logger, err)
		return "", "", false
	}
	return *req.Title, *req.Content, true
}

// Create は POST /posts のハンドラーです。
func (h *Handler) Create(c *gin.Context, id auth.Identity) {
	title, content, ok := h.bind(c)
	if !ok {
		return
	}
	post, err := h.service.Create(c.Request.Context(), id, title, content)
	if err != nil {
		apierr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "投稿を作成しました。",
		"postId":  post.ID,
	})
}

// List は GET /posts のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	posts, err := h.service.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Get は GET /posts/:postId のハンドラーです。
func (h *Handler) Get(c *gin.Context) {
	post, err := h.service.Get(c.Request.Context(), c.Param("postId"))
	if err != nil {
		apierr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Update は PUT /posts/:postId のハンドラーです。
func (h *Handler) Update(c *gin.Context, id auth.Identity) {
	title, content, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.service.Update(c.Request.Context(), id, c.Param("postId"), title, content); err != nil {
		apierr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投稿を更新しました。"})
}

// Delete は DELETE /posts/:postId のハンドラーです。
func (h *Handler) Delete(c *gin.Context, id auth.Identity) {
	if err := h.service.Delete(c.Request.Context(), id, c.Param("postId")); err != nil {
		apierr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投稿を削除しました。"})
}
