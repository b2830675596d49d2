package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/postboard/internal/models"
	"github.com/yourusername/postboard/internal/store"
)

type fakeAccounts struct {
	mu        sync.Mutex
	byNick    map[string]*models.User
	byID      map[string]*models.User
	findErr   error
	createErr error
	creates   int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byNick: map[string]*models.User{},
		byID:   map[string]*models.User{},
	}
}

func (f *fakeAccounts) FindUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byNick[nickname], nil
}

func (f *fakeAccounts) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byID[id], nil
}

func (f *fakeAccounts) CreateUser(ctx context.Context, nickname, passwordHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byNick[nickname]; ok {
		return nil, store.ErrNicknameTaken
	}
	f.creates++
	now := time.Now()
	u := &models.User{ID: uuid.NewString(), Nickname: nickname, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	f.byNick[nickname] = u
	f.byID[u.ID] = u
	return u, nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *memRecorder) Record(ctx context.Context, event models.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *memRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return issuer
}
