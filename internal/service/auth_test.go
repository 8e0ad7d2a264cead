package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stepup/internal/tokens"
)

func (f *fixture) auth() *AuthService {
	return &AuthService{
		Repo:           f.repo,
		Publisher:      f.pub,
		JWTSecret:      []byte("test-jwt-secret"),
		AccessTokenTTL: 15 * time.Minute,
		VerifyTokenTTL: 24 * time.Hour,
		SiteURL:        "https://shop.test",
	}
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.auth()

	tests := []struct {
		name  string
		mut   func(in *RegisterInput)
		field string
	}{
		{"empty username", func(in *RegisterInput) { in.Username = "" }, "username"},
		{"empty email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, "password"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "something-else" }, "confirm_password"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput("jane")
			tt.mut(&in)
			_, err := svc.Register(ctx, in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	svc := f.auth()

	u, err := svc.Register(ctx, registerInput("jane"))
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err = svc.Register(ctx, registerInput("jane"))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Login(ctx, "jane", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountInactive)

	events := f.pub.ByType(EventUserRegistered)
	require.Len(t, events, 1)
	payload := events[0].Event.Payload.(map[string]any)
	link := payload["verification_link"].(string)
	require.True(t, strings.HasPrefix(link, "https://shop.test/api/v1/auth/verify-email?token="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	verified, err := svc.VerifyEmail(ctx, parsed.Query().Get("token"))
	require.NoError(t, err)
	assert.True(t, verified.IsActive)

	res, err := svc.Login(ctx, "JANE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleUser, claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = svc.Login(ctx, "jane", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_VerifyEmail_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	svc := f.auth()

	_, err := svc.VerifyEmail(ctx, "garbage")
	assert.ErrorIs(t, err, ErrValidation)

	expired, err := tokens.SignVerifyToken(svc.JWTSecret, 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, expired)
	assert.ErrorIs(t, err, ErrValidation)

	access, err := tokens.SignAccessToken(svc.JWTSecret, 1, tokens.RoleUser, "", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, access)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_StaffRoleAndMe(t *testing.T) {
	f := newFixture(t)
	svc := f.auth()

	me, err := svc.Me(ctx, Anonymous())
	require.NoError(t, err)
	assert.Nil(t, me)

	staff := f.user("boss", true)
	me, err = svc.Me(ctx, User(staff.ID))
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "boss", me.Username)
	assert.Equal(t, tokens.RoleStaff, role(me))
}
