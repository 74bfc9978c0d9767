package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/modem-gateway/internal/models"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		Username: "operator1",
		Password: "hashed-password",
		Role:     "operator",
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	// BeforeCreate 钩子应该填充默认值
	assert.Equal(t, "operator1", user.Nickname)
	assert.Equal(t, "active", user.Status)

	found, err := repo.FindByUsername(ctx, "operator1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.IsActive())

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.Error(t, err)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "loginuser", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, "192.168.1.50"))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", found.LastLoginIP)
	require.NotNil(t, found.LastLoginAt)
}

func TestUserRepository_UpdateStatus(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "frozenuser", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdateStatus(ctx, user.ID, "frozen"))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "frozen", found.Status)
	assert.False(t, found.CanLogin())
}

func TestUserRepository_GetAll(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3"} {
		require.NoError(t, repo.Create(ctx, &models.User{Username: name, Password: "x"}))
	}

	p := NewPagination(1, 2)
	users, err := repo.GetAll(ctx, p)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(3), p.Total)
}

func TestUserRepository_Sessions(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "sessionuser", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    "session-abc",
		Token:        "token-abc",
		IsOnline:     true,
		LastActiveAt: time.Now(),
		ExpireAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateSession(ctx, session))

	found, err := repo.FindSessionByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "session-abc", found.SessionID)
	assert.False(t, found.IsExpired())

	require.NoError(t, repo.InvalidateSession(ctx, "session-abc"))
	found, err = repo.FindSessionByID(ctx, "session-abc")
	require.NoError(t, err)
	assert.False(t, found.IsOnline)
}

func TestUserRepository_CleanupExpiredSessions(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "cleanupuser", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	expired := &models.UserSession{
		UserID:    user.ID,
		SessionID: "expired",
		Token:     "token-expired",
		ExpireAt:  time.Now().Add(-time.Hour),
	}
	valid := &models.UserSession{
		UserID:    user.ID,
		SessionID: "valid",
		Token:     "token-valid",
		ExpireAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateSession(ctx, expired))
	require.NoError(t, repo.CreateSession(ctx, valid))

	deleted, err := repo.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindSessionByID(ctx, "expired")
	assert.Error(t, err)
}
