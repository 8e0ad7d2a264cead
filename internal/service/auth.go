package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/hash"
	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
	"github.com/Skotchmaster/stepup/internal/tokens"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = fmt.Errorf("%w: account not active", ErrPermissionDenied)
)

type AuthService struct {
	Repo      *repo.GormRepo
	Publisher mykafka.Publisher

	JWTSecret      []byte
	AccessTokenTTL time.Duration
	VerifyTokenTTL time.Duration
	SiteURL        string
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

type LoginResult struct {
	User        *models.User
	AccessToken string
	AccessExp   time.Time
}

func role(u *models.User) string {
	if u.IsStaff {
		return tokens.RoleStaff
	}
	return tokens.RoleUser
}

func (svc *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Username == "":
		return nil, invalid("username", "required")
	case in.Email == "":
		return nil, invalid("email", "required")
	case len(in.Password) < minPasswordLen:
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	case in.Password != in.ConfirmPassword:
		return nil, invalid("confirm_password", "passwords do not match")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, invalid("email", "invalid address")
	}

	usernameTaken, emailTaken, err := svc.Repo.UserTaken(ctx, in.Username, in.Email)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}
	if usernameTaken {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	}
	if emailTaken {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     false,
	}
	if err := svc.Repo.CreateUser(ctx, u); err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	link, err := svc.VerificationLink(u.ID)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot sign verification token", "error", err)
		return nil, err
	}

	l.Info("register_success", "user_id", u.ID)
	publish(ctx, svc.Publisher, mykafka.TopicUsers, strconv.FormatUint(uint64(u.ID), 10), EventUserRegistered, map[string]any{
		"user_id":           u.ID,
		"username":          u.Username,
		"email":             u.Email,
		"verification_link": link,
	})
	return u, nil
}

func (svc *AuthService) VerificationLink(userID uint) (string, error) {
	tok, err := tokens.SignVerifyToken(svc.JWTSecret, userID, time.Now().Add(svc.VerifyTokenTTL))
	if err != nil {
		return "", err
	}
	return svc.SiteURL + "/api/v1/auth/verify-email?token=" + url.QueryEscape(tok), nil
}

func (svc *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_email")

	claims, err := tokens.VerifyClaimsFromToken(token, svc.JWTSecret)
	if err != nil {
		l.Warn("verify_email_error", "status", 400, "error", err)
		return nil, invalid("token", "invalid or expired verification link")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, invalid("token", "invalid or expired verification link")
	}

	u, err := svc.Repo.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("token", "invalid or expired verification link")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		if err := svc.Repo.ActivateUser(ctx, id); err != nil {
			return nil, err
		}
		u.IsActive = true
	}

	l.Info("verify_email_success", "user_id", id)
	return u, nil
}

// Login accepts a username or an email address as identifier.
func (svc *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid("username", "username and password required")
	}

	u, err := svc.Repo.FindUserByLogin(ctx, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "status", 401, "reason", "unknown user")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrInvalidCredentials)
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", u.ID)
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrInvalidCredentials)
	}
	if !u.IsActive {
		l.Warn("login_failed", "status", 403, "reason", "account not active", "user_id", u.ID)
		return nil, ErrAccountInactive
	}

	exp := time.Now().Add(svc.AccessTokenTTL)
	tok, err := tokens.SignAccessToken(svc.JWTSecret, u.ID, role(u), u.Email, exp)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", u.ID)
	return &LoginResult{User: u, AccessToken: tok, AccessExp: exp}, nil
}

// Me returns nil for anonymous callers.
func (svc *AuthService) Me(ctx context.Context, access Access) (*models.User, error) {
	if !access.Authenticated() {
		return nil, nil
	}
	u, err := svc.Repo.GetUser(ctx, *access.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return u, err
}
