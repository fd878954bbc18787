package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdayz/studio-api/internal/models"
)

func newUserEnv(t *testing.T, users ...*models.User) (*testEnv, *UserService) {
	t.Helper()
	env := newGenerationEnv(t, users...)
	svc := NewUserService(testConfig(), testLogger(), env.users, env.ledger, env.marks)
	return env, svc
}

func TestRegister(t *testing.T) {
	t.Run("rejects malformed email", func(t *testing.T) {
		_, svc := newUserEnv(t)
		_, err := svc.Register(context.Background(), "not-an-email", "Ada", "password123")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, svc := newUserEnv(t)
		_, err := svc.Register(context.Background(), "ada@example.com", "Ada", "short")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, svc := newUserEnv(t, freemiumUser(5))
		_, err := svc.Register(context.Background(), "User@Example.com", "Ada", "password123")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("creates the account with the starting state", func(t *testing.T) {
		env, svc := newUserEnv(t)
		user, err := svc.Register(context.Background(), "Ada@Example.com", "", "password123")
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "ada", user.Name)
		assert.Equal(t, 1, user.Level)
		assert.Equal(t, 0, user.XP)
		assert.Equal(t, 5, user.Credits)
		assert.Empty(t, user.Achievements)
		assert.Equal(t, models.PlanFreemium, user.Plan)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotNil(t, env.users.get("ada@example.com"))
	})
}

func TestAuthenticate(t *testing.T) {
	env, svc := newUserEnv(t)
	registered, err := svc.Register(context.Background(), "ada@example.com", "Ada", "password123")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "ada@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.Email, user.Email)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "ada@example.com", "wrongpass99")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("same-day re-login never re-grants", func(t *testing.T) {
		_, err := env.users.ConsumeCredits(context.Background(), "ada@example.com", 5)
		require.NoError(t, err)

		user, err := svc.Authenticate(context.Background(), "ada@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, 0, user.Credits)
	})
}

func TestDeleteAccount(t *testing.T) {
	env, svc := newUserEnv(t, freemiumUser(5))

	require.NoError(t, svc.Delete(context.Background(), "user@example.com"))
	assert.Nil(t, env.users.get("user@example.com"))

	_, err := svc.Get(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
