package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tilakkndl/Nature-app/internal/domain"
	"github.com/tilakkndl/Nature-app/internal/mailer"
	"github.com/tilakkndl/Nature-app/internal/repository"
	"github.com/tilakkndl/Nature-app/pkg/auth"
	"github.com/tilakkndl/Nature-app/pkg/config"
	"github.com/tilakkndl/Nature-app/pkg/events"
	"github.com/tilakkndl/Nature-app/pkg/logger"
)

// Sentinel errors; handlers map these onto HTTP statuses.
var (
	ErrValidation  = errors.New("validation failed")
	ErrEmailExists = errors.New("user with this email already exists")
	// ErrInvalidCredentials carries the same message for unknown email and
	// wrong password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUserNotFound       = errors.New("there is no user with this email address")
	ErrInvalidResetToken  = errors.New("token is invalid or has expired")
	ErrEmailDelivery      = errors.New("there was an error sending the email, try again later")
)

type AuthService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, rawToken string, req *domain.ResetPasswordRequest) (string, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) error
	DeleteUser(ctx context.Context, id int64) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		eventBus: eventBus,
		config:   config,
	}
}

// Signup creates an account from an allow-listed field subset. The role is
// always "user"; role changes happen only through the admin path.
func (s *authService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		RegisteredAt: user.CreatedAt,
	})

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, nil
}

// ForgotPassword stores only the digest of the reset token; the raw value
// leaves the server exactly once, inside the emailed link. If the email
// cannot be delivered the reset fields are rolled back so no unusable token
// stays outstanding.
func (s *authService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	raw, digest, err := auth.NewResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().Add(s.config.Auth.ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/v1/auth/reset-password/%s", s.config.App.BaseURL, raw)
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.ErrorContext(ctx, "Failed to clear reset token after send failure", "error", clearErr, "user_id", user.ID)
		}
		return ErrEmailDelivery
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, rawToken string, req *domain.ResetPasswordRequest) (string, error) {
	digest := auth.HashResetToken(rawToken)
	user, err := s.userRepo.FindByResetTokenHash(ctx, digest)
	if err != nil {
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user == nil {
		return "", ErrInvalidResetToken
	}

	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	s.publish(ctx, events.UserPasswordChanged, events.UserPasswordChangedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		ChangedAt: time.Now(),
	})

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, id int64, role string) error {
	if !domain.IsValidRole(role) {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return nil
}

func (s *authService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// publish is fire-and-forget; a broker outage never fails the request.
func (s *authService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
