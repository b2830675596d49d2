package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/postboard/internal/models"
)

const userKeyPrefix = "user:"

// UserFinder はIDでユーザーを引ける永続層です。
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// UserCache は FindUserByID の結果を Redis にキャッシュします。
// ユーザーは作成後に変更されないため、TTL 以外の無効化は行いません。
type UserCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	next   UserFinder
	logger *log.Logger
}

// NewUserCache は UserCache を作成します。
func NewUserCache(rdb *redis.Client, ttl time.Duration, next UserFinder, logger *log.Logger) *UserCache {
	return &UserCache{
		rdb:    rdb,
		ttl:    ttl,
		next:   next,
		logger: logger,
	}
}

// cachedUser はキャッシュに載せる項目です。パスワードハッシュは保存しません。
type cachedUser struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindUserByID はキャッシュを優先してユーザーを取得します。
// Redis の障害時はデータベースへフォールバックします。
func (c *UserCache) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	data, err := c.rdb.Get(ctx, userKey(id)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal(data, &cu); jsonErr == nil {
			return &models.User{
				ID:        cu.ID,
				Nickname:  cu.Nickname,
				CreatedAt: cu.CreatedAt,
				UpdatedAt: cu.UpdatedAt,
			}, nil
		}
		c.logf("user cache: corrupt entry id=%s", id)
	case !errors.Is(err, redis.Nil):
		c.logf("user cache: get id=%s: %v", id, err)
	}

	user, err := c.next.FindUserByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err == nil {
		if err := c.rdb.Set(ctx, userKey(id), payload, c.ttl).Err(); err != nil {
			c.logf("user cache: set id=%s: %v", id, err)
		}
	}
	return user, nil
}

func (c *UserCache) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func userKey(id string) string {
	return userKeyPrefix + id
}
