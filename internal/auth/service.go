package auth

import (
	"context"
	"errors"
	"log"

	"github.com/yourusername/postboard/internal/apierr"
	"github.com/yourusername/postboard/internal/audit"
	"github.com/yourusername/postboard/internal/models"
	"github.com/yourusername/postboard/internal/store"
	"github.com/yourusername/postboard/internal/validate"
)

// Accounts はアカウントの検索と作成を行うストアです。
type Accounts interface {
	FindUserByNickname(ctx context.Context, nickname string) (*models.User, error)
	CreateUser(ctx context.Context, nickname, passwordHash string) (*models.User, error)
}

// Service はサインアップとログインを扱います。
type Service struct {
	accounts Accounts
	hasher   *Hasher
	tokens   *TokenIssuer
	recorder audit.Recorder
	logger   *log.Logger
}

// NewService は Service を作成します。recorder は nil でも構いません。
func NewService(accounts Accounts, hasher *Hasher, tokens *TokenIssuer, recorder audit.Recorder, logger *log.Logger) *Service {
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger,
	}
}

// Signup はアカウントを作成します。いずれかの検査に失敗した場合は何も書き込みません。
func (s *Service) Signup(ctx context.Context, nickname, password, confirmPassword string) (*models.User, error) {
	if err := validate.Signup(nickname, password, confirmPassword); err != nil {
		return nil, err
	}

	existing, err := s.accounts.FindUserByNickname(ctx, nickname)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	if existing != nil {
		return nil, errNicknameTaken()
	}

	if err := validate.PasswordExcludesNickname(nickname, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apierr.Storage(err)
	}

	user, err := s.accounts.CreateUser(ctx, nickname, digest)
	if err != nil {
		// 検索と作成の間に同じニックネームが登録された
		if errors.Is(err, store.ErrNicknameTaken) {
			return nil, errNicknameTaken()
		}
		return nil, apierr.Storage(err)
	}

	audit.Emit(ctx, s.recorder, models.AuditEvent{
		Type:     audit.EventSignup,
		UserID:   user.ID,
		Nickname: user.Nickname,
	})
	return user, nil
}

// Login は資格情報を検証し、トークンを発行します。
// 入力不備は 412、資格情報の不一致は 401 で、メッセージはどちらも同じです。
func (s *Service) Login(ctx context.Context, nickname, password string) (string, *models.User, error) {
	if err := validate.Login(nickname, password); err != nil {
		return "", nil, err
	}

	user, err := s.accounts.FindUserByNickname(ctx, nickname)
	if err != nil {
		return "", nil, apierr.Storage(err)
	}

	var ok bool
	if user == nil {
		ok = s.hasher.VerifyMissing(password)
	} else {
		ok = s.hasher.Verify(password, user.PasswordHash)
	}
	if !ok {
		event := models.AuditEvent{Type: audit.EventLoginFailed, Nickname: nickname}
		if user != nil {
			event.UserID = user.ID
		}
		audit.Emit(ctx, s.recorder, event)
		return "", nil, errLoginFailed()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, apierr.Storage(err)
	}

	audit.Emit(ctx, s.recorder, models.AuditEvent{
		Type:     audit.EventLoginSucceeded,
		UserID:   user.ID,
		Nickname: user.Nickname,
	})
	return token, user, nil
}

func errNicknameTaken() error {
	return apierr.Validation(validate.CodeNicknameTaken, validate.MsgNicknameTaken)
}

func errLoginFailed() error {
	return apierr.Unauthorized(validate.CodeLoginFailed, validate.MsgLoginFailed)
}
