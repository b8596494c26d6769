package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/jwt"
	"github.com/docshare-app/docshare/internal/pkg/password"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
)

const resetTTLSeconds = 3600

type AuthService struct {
	users     *repo.UserRepo
	resets    *repo.ResetTokenRepo
	mailer    *AsyncMailer
	jwtSecret []byte
	jwtTTL    time.Duration
	publicURL string
}

func NewAuthService(users *repo.UserRepo, resets *repo.ResetTokenRepo, mailer *AsyncMailer, secret []byte, ttl time.Duration, publicURL string) *AuthService {
	return &AuthService{
		users:     users,
		resets:    resets,
		mailer:    mailer,
		jwtSecret: secret,
		jwtTTL:    ttl,
		publicURL: publicURL,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, plainPassword string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || !strings.Contains(email, "@") || len(plainPassword) < 8 {
		return nil, "", appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	jwtToken, err := jwt.GenerateToken(user.ID, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, jwtToken, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	jwtToken, err := jwt.GenerateToken(user.ID, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, jwtToken, nil
}

// ChangePassword rotates the password of a logged-in user who can still
// prove the current one. Getting the current password wrong reads the
// same as a bad login.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, currentPassword); err != nil {
		return appErr.ErrUnauthorized
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash, timeutil.NowUnix())
}

// ForgotPassword issues a single-use one-hour reset token and mails the
// link. An unknown email reports success all the same, so the endpoint
// cannot be used to probe which addresses are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	now := timeutil.NowUnix()
	reset := &model.PasswordResetToken{
		UserID:    user.ID,
		Ctime:     now,
		ExpiresAt: now + resetTTLSeconds,
	}
	for i := 0; i < tokenRetries; i++ {
		reset.ID = newID()
		reset.Token = token.New()
		err = s.resets.Create(ctx, reset)
		if !appErr.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`Hello %s,

You requested a password reset for your account. Open the link below to
choose a new password:

%s

This link expires in 1 hour and can be used once. If you didn't request
this, please ignore this email.
`, user.Name, s.resetURL(reset.Token))
	s.mailer.Enqueue(user.Email, "Password Reset Request", body)
	return nil
}

// ResetPassword consumes the token and installs the new password hash
// atomically. A used or expired token reads as not found.
func (s *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if tok == "" || len(newPassword) < 8 {
		return appErr.ErrInvalid
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	_, err = s.resets.Consume(ctx, tok, timeutil.NowUnix(), hash)
	return err
}

// ValidateResetToken lets the reset form check a token before prompting
// for a new password.
func (s *AuthService) ValidateResetToken(ctx context.Context, tok string) error {
	_, err := s.resets.FindValid(ctx, tok, timeutil.NowUnix())
	return err
}

func (s *AuthService) resetURL(tok string) string {
	return strings.TrimSuffix(s.publicURL, "/") + "/reset-password/" + tok
}
