package services

import (
	"testing"
	"time"

	"quizhub/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	db := setupTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewAuthService(db, nil, "test-secret", clock)
}

func TestRegisterHashesPassword(t *testing.T) {
	service := newAuthFixture(t)

	user, err := service.Register(&RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "sekrit123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleCreator, user.Role)
	assert.NotEqual(t, "sekrit123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("sekrit123")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service := newAuthFixture(t)

	req := &RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "sekrit123"}
	_, err := service.Register(req)
	require.NoError(t, err)

	_, err = service.Register(req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginIssuesToken(t *testing.T) {
	service := newAuthFixture(t)

	registered, err := service.Register(&RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "sekrit123",
	})
	require.NoError(t, err)

	user, token, err := service.Login(&LoginRequest{
		Email:    "alice@example.com",
		Password: "sekrit123",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, registered.ID, claims["user_id"])
	assert.Equal(t, models.RoleCreator, claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service := newAuthFixture(t)

	_, err := service.Register(&RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "sekrit123",
	})
	require.NoError(t, err)

	_, _, err = service.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = service.Login(&LoginRequest{Email: "nobody@example.com", Password: "sekrit123"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogoutWithoutRedisIsNoop(t *testing.T) {
	service := newAuthFixture(t)

	assert.NoError(t, service.Logout("whatever"))
	assert.False(t, service.IsTokenRevoked("whatever"))
}

func TestUpdateProfile(t *testing.T) {
	service := newAuthFixture(t)

	user, err := service.Register(&RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "sekrit123",
	})
	require.NoError(t, err)

	updated, err := service.UpdateProfile(user.ID, &UpdateProfileRequest{Name: "Alice B", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "555-0100", updated.Phone)
	// Untouched fields survive partial updates.
	assert.Equal(t, "alice@example.com", updated.Email)

	_, err = service.GetProfile(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
