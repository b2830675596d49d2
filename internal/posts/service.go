// Package posts は投稿の作成・閲覧・更新・削除を提供します。
package posts

import (
	"context"
	"log"

	"github.com/yourusername/postboard/internal/apierr"
	"github.com/yourusername/postboard/internal/audit"
	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/models"
	"github.com/yourusername/postboard/internal/validate"
)

// CodePostNotFound は投稿が存在しない場合のエラーコードです。
const CodePostNotFound = "POST_NOT_FOUND"

// Repository は投稿の永続層です。
// UpdatePost と DeletePost は id と作成者の両方が一致する行だけを対象にし、件数を返します。
type Repository interface {
	CreatePost(ctx context.Context, ownerID string, fields models.PostFields) (*models.Post, error)
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.PostSummary, error)
	UpdatePost(ctx context.Context, id, ownerID string, fields models.PostFields) (int64, error)
	DeletePost(ctx context.Context, id, ownerID string) (int64, error)
}

// Service は投稿のユースケースをまとめます。
type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *log.Logger
}

// NewService は Service を作成します。
func NewService(repo Repository, recorder audit.Recorder, logger *log.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// Create は要求者を作成者として投稿を作成します。
func (s *Service) Create(ctx context.Context, id auth.Identity, title, content string) (*models.Post, error) {
	if err := validate.Post(title, content); err != nil {
		return nil, err
	}
	post, err := s.repo.CreatePost(ctx, id.UserID, models.PostFields{Title: title, Content: content})
	if err != nil {
		return nil, apierr.Storage(err)
	}
	post.Nickname = id.Nickname
	return post, nil
}

// List は投稿を新しい順に返します。
func (s *Service) List(ctx context.Context) ([]models.PostSummary, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	return posts, nil
}

// Get は投稿を1件返します。
func (s *Service) Get(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	if post == nil {
		return nil, errPostNotFound()
	}
	return post, nil
}

// Update は作成者本人による更新だけを許可します。
// 検証 → 存在確認 (404) → 所有者確認 (403) → 条件付き更新 の順に評価します。
func (s *Service) Update(ctx context.Context, id auth.Identity, postID, title, content string) error {
	if err := validate.Post(title, content); err != nil {
		return err
	}
	if err := s.authorize(ctx, id, postID); err != nil {
		return err
	}

	n, err := s.repo.UpdatePost(ctx, postID, id.UserID, models.PostFields{Title: title, Content: content})
	if err != nil {
		return apierr.Storage(err)
	}
	if n == 0 {
		// 所有者確認の後に削除された
		return errPostNotFound()
	}
	return nil
}

// Delete は作成者本人による削除だけを許可します。
func (s *Service) Delete(ctx context.Context, id auth.Identity, postID string) error {
	if err := s.authorize(ctx, id, postID); err != nil {
		return err
	}

	n, err := s.repo.DeletePost(ctx, postID, id.UserID)
	if err != nil {
		return apierr.Storage(err)
	}
	if n == 0 {
		return errPostNotFound()
	}

	audit.Emit(ctx, s.recorder, models.AuditEvent{
		Type:     audit.EventPostDeleted,
		UserID:   id.UserID,
		Nickname: id.Nickname,
		PostID:   postID,
	})
	return nil
}

func (s *Service) authorize(ctx context.Context, id auth.Identity, postID string) error {
	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return apierr.Storage(err)
	}
	if post == nil {
		return errPostNotFound()
	}
	if err := auth.AuthorizeMutation(post.UserID, id.UserID); err != nil {
		audit.Emit(ctx, s.recorder, models.AuditEvent{
			Type:     audit.EventMutationForbidden,
			UserID:   id.UserID,
			Nickname: id.Nickname,
			PostID:   postID,
		})
		return err
	}
	return nil
}

func errPostNotFound() error {
	return apierr.NotFound(CodePostNotFound, "投稿が存在しません。")
}
