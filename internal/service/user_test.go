package service

import (
	"context"
	"testing"
	"time"

	"speedrun/backend/internal/models"
	"speedrun/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateHashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)

	user, err := svc.Create(context.Background(), UserInput{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestUserCreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, UserInput{Username: "alice", Email: "other@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Create(ctx, UserInput{Username: "bob", Email: "alice@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, int64(1), count(t, db, &models.User{}))
}

func TestUserUpdateUniqueness(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()
	alice, err := svc.Create(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, UserInput{Username: "bob", Email: "bob@example.com", Password: "hunter22"})
	require.NoError(t, err)

	// unchanged values are not conflicts with oneself
	affected, err := svc.Update(ctx, alice.ID, UserPatch{Username: ptr("alice"), Bio: ptr("any% runner")})
	require.NoError(t, err)
	assert.True(t, affected)

	_, err = svc.Update(ctx, alice.ID, UserPatch{Username: ptr("bob")})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Update(ctx, alice.ID, UserPatch{Email: ptr("bob@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "any% runner", got.Bio)
	assert.True(t, got.UpdatedAt.After(alice.UpdatedAt) || got.UpdatedAt.Equal(alice.UpdatedAt))
}

func TestUserUpdatePasswordAndEmptyPatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()
	alice, err := svc.Create(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice.ID, UserPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, alice.ID, UserPatch{Password: ptr("correct horse")})
	require.NoError(t, err)
	got, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("correct horse")))

	affected, err := svc.Update(ctx, 999, UserPatch{Bio: ptr("x")})
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestUserSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()
	for _, name := range []string{"SpeedyAlice", "alicia", "bob", "100%er"} {
		_, err := svc.Create(ctx, UserInput{Username: name, Email: name + "@example.com", Password: "hunter22"})
		require.NoError(t, err)
	}

	users, err := svc.Search(ctx, "ALIC")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "SpeedyAlice", users[0].Username)
	assert.Equal(t, "alicia", users[1].Username)

	users, err = svc.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "100%er", users[0].Username)

	_, err = svc.Search(ctx, "zelda")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, nil)
	f.record(t, 1000, models.StatusPending)

	affected, err := svc.Delete(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, affected)
	assert.Equal(t, int64(0), count(t, f.db, &models.Record{}))

	_, err = svc.Get(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	issuer := jwt.NewIssuer("secret", time.Hour)
	auth := NewAuthService(NewUserService(db, nil), issuer)
	ctx := context.Background()

	reg, err := auth.Register(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "hunter22", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, models.RoleUser, reg.User.Role, "registration never grants admin")

	for _, login := range []string{"alice", "alice@example.com"} {
		res, err := auth.Login(ctx, login, "hunter22")
		require.NoError(t, err, login)
		claims, err := issuer.Parse(res.Token)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, claims.UserID)
		assert.Equal(t, models.RoleUser, claims.Role)
	}

	_, err = auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrAuthentication)
	_, err = auth.Login(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = auth.Register(ctx, UserInput{Username: "alice", Email: "x@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrConflict)
}
