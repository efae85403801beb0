package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/model"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/queue"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/utils"
)

const otpDigits = 6

// RegisterInput is a self-service sign-up.  Role defaults to STUDENT;
// ADMIN cannot be self-assigned.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
	Role        string
}

type RegisterResult struct {
	PrincipalID uint64
	Email       string
}

func otpKey(email string) string { return "otp:" + email }

// Register creates an unverified principal and sends it a one-time code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") || strings.TrimSpace(in.DisplayName) == "" {
		return RegisterResult{}, ErrInvalidInput
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role != model.RoleInstructor {
		role = model.RoleStudent
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return RegisterResult{}, errors.Join(ErrInvalidInput, err)
		}
		return RegisterResult{}, err
	}

	id, err := s.principals.Create(ctx, model.Principal{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Phone:        strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return RegisterResult{}, principalErr(err)
	}
	s.log.Info("principal registered", "principal_id", id, "role", role)

	if err := s.sendOTP(ctx, id, email); err != nil {
		// The account exists; the client can ask for a new code.
		s.log.Warn("otp not issued at registration", "principal_id", id, "error", err)
	}
	return RegisterResult{PrincipalID: id, Email: email}, nil
}

// VerifyOTP confirms the registration code and marks the email verified.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}
	p, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		return principalErr(err)
	}
	if p.EmailVerified {
		return ErrAlreadyVerified
	}

	digest, err := s.kv.Get(ctx, otpKey(email))
	if errors.Is(err, kvstore.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return storeErr(err)
	}
	if !utils.MatchOTP(digest, code) {
		return ErrInvalidOTP
	}

	if err := s.principals.MarkEmailVerified(ctx, p.ID); err != nil {
		return principalErr(err)
	}
	if err := s.kv.Delete(ctx, otpKey(email)); err != nil {
		s.log.Warn("otp not deleted after verification", "principal_id", p.ID, "error", err)
	}
	s.invalidateProfile(ctx, p.ID)
	s.dispatch(queue.NewNotification(queue.KindEmailVerified, p.ID, email, ""))
	s.log.Info("email verified", "principal_id", p.ID)
	return nil
}

// ResendOTP replaces any outstanding code for an unverified principal.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrInvalidInput
	}
	p, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		return principalErr(err)
	}
	if p.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.sendOTP(ctx, p.ID, email)
}

func (s *AuthService) sendOTP(ctx context.Context, principalID uint64, email string) error {
	code, err := utils.NewOTP(otpDigits)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, otpKey(email), utils.HashOTP(code), s.otpTTL); err != nil {
		return storeErr(err)
	}
	s.dispatch(queue.NewNotification(queue.KindOTPRequested, principalID, email, code))
	return nil
}
