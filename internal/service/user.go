package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/mail"
	"github.com/zarick1/natours/internal/query"
	"github.com/zarick1/natours/internal/repository"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// defaultPhoto is assigned to accounts created without a profile picture.
const defaultPhoto = "default.jpg"

// UserEventPublisher publishes user domain events.
type UserEventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
}

// UserService implements the business logic for account and auth operations.
type UserService struct {
	users        repository.UserRepository
	tokens       *auth.JWTManager
	mailer       mail.Sender
	producer     UserEventPublisher
	logger       *slog.Logger
	resetURLBase string
}

// NewUserService creates a new user service. resetURLBase is the public URL
// prefix reset links are built from.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.JWTManager,
	mailer mail.Sender,
	producer UserEventPublisher,
	logger *slog.Logger,
	resetURLBase string,
) *UserService {
	return &UserService{
		users:        users,
		tokens:       tokens,
		mailer:       mailer,
		producer:     producer,
		logger:       logger,
		resetURLBase: resetURLBase,
	}
}

// SignupInput holds the parameters for registering a new account.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateMeInput holds the self-service profile fields a user may change.
// Credential fields deliberately have no place here.
type UpdateMeInput struct {
	Name  *string
	Email *string
	Photo *string
}

// AdminUpdateUserInput holds the fields an administrator may change on any
// account.
type AdminUpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// Signup creates a new account, hashes the password, and returns the user
// with a signed access token.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*domain.User, string, error) {
	if input.Name == "" {
		return nil, "", apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}
	if input.Password != input.PasswordConfirm {
		return nil, "", apperrors.InvalidInput("passwords do not match")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        normalizeEmail(input.Email),
		Photo:        defaultPhoto,
		Role:         domain.RoleUser,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Login authenticates with email and password, returning the user with a
// signed access token. Unknown email and wrong password are reported
// identically.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if input.Email == "" || input.Password == "" {
		return nil, "", apperrors.InvalidInput("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, "", apperrors.Unauthorized("incorrect email or password")
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, "", apperrors.Unauthorized("incorrect email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// ForgotPassword initiates a password reset. The response never reveals
// whether the email is registered. If the reset email cannot be delivered,
// the stored token is cleared again so no undeliverable token stays live.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.InfoContext(ctx, "password reset requested for unknown email",
			slog.String("email", email),
		)
		return nil
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}

	user.PasswordResetToken = &token.Hash
	user.PasswordResetExpires = &token.ExpiresAt
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := s.resetURLBase + "/api/v1/auth/reset-password/" + token.Plain
	if err := s.mailer.Send(ctx, mail.ResetMessage(user.Email, resetURL)); err != nil {
		// Roll the token back; a token nobody received must not stay usable.
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
		if clearErr := s.users.Update(ctx, user); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear reset token after mail failure",
				slog.String("user_id", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return apperrors.Dependency("mail", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword sets a new password using a reset token from email. The
// token is single-use: the stored hash is cleared on success, and the
// password-changed timestamp is bumped so older JWTs stop working.
func (s *UserService) ResetPassword(ctx context.Context, plainToken, password, passwordConfirm string) (*domain.User, string, error) {
	if plainToken == "" {
		return nil, "", apperrors.InvalidInput("reset token is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}
	if password != passwordConfirm {
		return nil, "", apperrors.InvalidInput("passwords do not match")
	}

	user, err := s.users.GetByResetTokenHash(ctx, auth.HashResetToken(plainToken))
	if err != nil {
		return nil, "", apperrors.InvalidInput("token is invalid or has expired")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user.PasswordHash = hash
	user.PasswordChangedAt = &now
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", fmt.Errorf("update password: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// UpdatePassword changes the password of a logged-in user after verifying
// the current one, and returns a fresh access token.
func (s *UserService) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if password != passwordConfirm {
		return "", apperrors.InvalidInput("passwords do not match")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, current) {
		return "", apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	user.PasswordHash = hash
	user.PasswordChangedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "password updated",
		slog.String("user_id", user.ID),
	)

	return token, nil
}

// GetMe returns the authenticated user's own account.
func (s *UserService) GetMe(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateMe changes the authenticated user's profile fields.
func (s *UserService) UpdateMe(ctx context.Context, userID string, input UpdateMeInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Photo != nil {
		user.Photo = *input.Photo
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// DeactivateMe soft-deletes the authenticated user's account.
func (s *UserService) DeactivateMe(ctx context.Context, userID string) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deactivated",
		slog.String("user_id", userID),
	)

	return nil
}

// ListUsers returns accounts matching the query description.
func (s *UserService) ListUsers(ctx context.Context, spec *query.Spec) ([]domain.User, int, error) {
	return s.users.List(ctx, spec)
}

// GetUser returns a single account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser changes account fields as an administrator.
func (s *UserService) UpdateUser(ctx context.Context, id string, input AdminUpdateUserInput) (*domain.User, error) {
	if input.Role != nil && !domain.IsValidRole(*input.Role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", *input.Role))
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated by admin",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// DeleteUser removes an account entirely.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("user_id", id),
	)

	return nil
}

// normalizeEmail canonicalizes an address so lookups and the unique
// constraint are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
