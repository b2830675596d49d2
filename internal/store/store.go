// Package store はユーザー・投稿・監査イベントの永続化を GORM で提供します。
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yourusername/postboard/internal/models"
)

// ErrNicknameTaken は一意制約に違反したサインアップで返されます。
var ErrNicknameTaken = errors.New("nickname already taken")

// Store は GORM を使ったリポジトリ実装です。
type Store struct {
	db *gorm.DB
}

// Open は DSN に応じたドライバでデータベースを開き、スキーマを移行します。
// postgres:// または postgresql:// で始まる場合は PostgreSQL、それ以外は SQLite として扱います。
func Open(dsn string) (*Store, error) {
	return open(dsn, log.Default())
}

// newGormLogger はバインド値を出さない GORM ロガーを返します。
// 失敗したクエリのログにパスワードハッシュが載らないようにします。
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		ParameterizedQueries:      true,
		IgnoreRecordNotFoundError: true,
	})
}

func open(dsn string, w logger.Writer) (*Store, error) {
	var dialector gorm.Dialector
	isSQLite := false
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
		isSQLite = true
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(w),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if isSQLite && strings.Contains(dsn, ":memory:") {
		// インメモリDBは接続ごとに別物になるため1本に固定する
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&UserModel{}, &PostModel{}, &AuditEventModel{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close は下層の接続を閉じます。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindUserByNickname はニックネームでユーザーを探します。存在しなければ nil を返します。
func (s *Store) FindUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var m UserModel
	if err := s.db.WithContext(ctx).Where("nickname = ?", nickname).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toUser(&m), nil
}

// FindUserByID はIDでユーザーを探します。存在しなければ nil を返します。
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var m UserModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toUser(&m), nil
}

// CreateUser はユーザーを作成します。ニックネームが重複していれば ErrNicknameTaken を返します。
func (s *Store) CreateUser(ctx context.Context, nickname, passwordHash string) (*models.User, error) {
	m := UserModel{
		ID:           uuid.NewString(),
		Nickname:     nickname,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNicknameTaken
		}
		return nil, err
	}
	return toUser(&m), nil
}

// CreatePost は投稿を作成します。
func (s *Store) CreatePost(ctx context.Context, ownerID string, fields models.PostFields) (*models.Post, error) {
	m := PostModel{
		ID:      uuid.NewString(),
		UserID:  ownerID,
		Title:   fields.Title,
		Content: fields.Content,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return nil, err
	}
	return toPost(&m), nil
}

// FindPostByID はIDで投稿を探します。存在しなければ nil を返します。
func (s *Store) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	var m PostModel
	err := s.db.WithContext(ctx).Joins("User").Where("posts.id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPost(&m), nil
}

// ListPosts は投稿を新しい順に返します。
func (s *Store) ListPosts(ctx context.Context) ([]models.PostSummary, error) {
	var rows []PostModel
	err := s.db.WithContext(ctx).
		Joins("User").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	posts := make([]models.PostSummary, len(rows))
	for i := range rows {
		posts[i] = models.PostSummary{
			ID:        rows[i].ID,
			UserID:    rows[i].UserID,
			Nickname:  rows[i].User.Nickname,
			Title:     rows[i].Title,
			CreatedAt: rows[i].CreatedAt,
			UpdatedAt: rows[i].UpdatedAt,
		}
	}
	return posts, nil
}

// UpdatePost は id と作成者が両方一致する行だけを更新し、更新件数を返します。
func (s *Store) UpdatePost(ctx context.Context, id, ownerID string, fields models.PostFields) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&PostModel{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(map[string]any{
			"title":   fields.Title,
			"content": fields.Content,
		})
	return res.RowsAffected, res.Error
}

// DeletePost は id と作成者が両方一致する行だけを削除し、削除件数を返します。
func (s *Store) DeletePost(ctx context.Context, id, ownerID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&PostModel{})
	return res.RowsAffected, res.Error
}

// SaveAuditEvent は監査イベントを保存します。
func (s *Store) SaveAuditEvent(ctx context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&AuditEventModel{
		ID:        event.ID,
		Type:      event.Type,
		UserID:    event.UserID,
		Nickname:  event.Nickname,
		PostID:    event.PostID,
		ClientIP:  event.ClientIP,
		CreatedAt: event.CreatedAt,
	}).Error
}

// ListAuditEvents はユーザーの監査イベントを新しい順に最大 limit 件返します。
func (s *Store) ListAuditEvents(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error) {
	var rows []AuditEventModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]models.AuditEvent, len(rows))
	for i, r := range rows {
		events[i] = models.AuditEvent{
			ID:        r.ID,
			Type:      r.Type,
			UserID:    r.UserID,
			Nickname:  r.Nickname,
			PostID:    r.PostID,
			ClientIP:  r.ClientIP,
			CreatedAt: r.CreatedAt,
		}
	}
	return events, nil
}

func toUser(m *UserModel) *models.User {
	return &models.User{
		ID:           m.ID,
		Nickname:     m.Nickname,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPost(m *PostModel) *models.Post {
	return &models.Post{
		ID:        m.ID,
		UserID:    m.UserID,
		Nickname:  m.User.Nickname,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
