package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/event"
	"github.com/utafrali/plantstore/internal/mailer"
	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/validator"
)

// SessionStore creates and removes login sessions.
type SessionStore interface {
	Create(ctx context.Context, user *domain.User, ttl time.Duration) (*session.UserSession, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig holds the settings of the auth service.
type AuthConfig struct {
	PublicBaseURL string
	SessionTTL    time.Duration
	RememberTTL   time.Duration
	BcryptCost    int
}

// RegistrationError reports an account that was created but whose activation
// email could not be sent. The user has to request a new activation email.
type RegistrationError struct {
	UserID string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("account %s created but activation email could not be sent: %v", e.UserID, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FullName        string `json:"full_name" validate:"required,personname"`
	Phone           string `json:"phone" validate:"required,vnphone"`
	Email           string `json:"email" validate:"required,email"`
	Website         string `json:"website" validate:"omitempty,website"`
	Password        string `json:"password" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	SubscribeEmail  bool   `json:"subscribe_email"`
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResult is a successful login: the session token and the user.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AuthService implements registration, activation and login.
type AuthService struct {
	users    repository.UserRepository
	sessions SessionStore
	tokens   *session.TokenManager
	mail     mailer.Sender
	producer *event.Producer
	cfg      AuthConfig
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions SessionStore,
	tokens *session.TokenManager,
	mail mailer.Sender,
	producer *event.Producer,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		mail:     mail,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates an unverified account and emails its activation link.
// When the email cannot be sent the account still exists and a
// *RegistrationError is returned.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	// A failed uniqueness check is not fatal; the store rejects duplicates too.
	exists, err := s.CheckEmailExists(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "email uniqueness check failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}
	if exists {
		return nil, validator.NewValidationError(map[string]string{"email": "is already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:              uuid.NewString(),
		FullName:        strings.TrimSpace(input.FullName),
		Phone:           validator.StripSpaces(input.Phone),
		Email:           email,
		PasswordHash:    string(hash),
		Role:            domain.RoleCustomer,
		ActivationToken: uuid.NewString(),
		Website:         input.Website,
		SubscribeEmail:  input.SubscribeEmail,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sendActivation(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "activation email could not be sent after registration",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return user.Public(), &RegistrationError{UserID: user.ID, Err: err}
	}

	return user.Public(), nil
}

// Activate verifies the email of userID with its activation token.
func (s *AuthService) Activate(ctx context.Context, userID, token string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if token == "" || user.ActivationToken != token {
		return nil, apperrors.InvalidInput("invalid activation token")
	}
	if user.EmailVerified {
		return nil, apperrors.Conflict("account is already activated")
	}

	now := time.Now().UTC()
	user.EmailVerified = true
	user.ActivationToken = ""
	user.ActivatedAt = &now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}

	if err := s.producer.PublishUserActivated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.activated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user activated", slog.String("user_id", user.ID))
	return user.Public(), nil
}

// ResendActivation issues a new activation token for an unverified account
// and emails it.
func (s *AuthService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperrors.Conflict("account is already activated")
	}

	user.ActivationToken = uuid.NewString()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store activation token: %w", err)
	}

	if err := s.sendActivation(ctx, user); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}
	return nil
}

// Login checks the credentials and opens a session. rememberMe extends the
// session lifetime.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("no account exists for this email")
		}
		return nil, err
	}

	if !user.EmailVerified {
		return nil, apperrors.Unauthorized("please verify your email before logging in")
	}
	if user.PasswordHash == "" {
		return nil, apperrors.Unauthorized("account has no password set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("incorrect password")
	}

	ttl := s.cfg.SessionTTL
	if input.RememberMe {
		ttl = s.cfg.RememberTTL
	}

	sess, err := s.sessions.Create(ctx, user, ttl)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.Issue(sess.ID(), user, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("remember_me", input.RememberMe),
	)

	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
		User:      user.Public(),
	}, nil
}

// Logout ends the session with the given id.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.Unauthorized("not logged in")
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Me returns the user of sess.
func (s *AuthService) Me(sess session.Session) (*domain.User, error) {
	user := sess.CurrentUser()
	if user == nil {
		return nil, apperrors.Unauthorized("not logged in")
	}
	return user, nil
}

// CheckEmailExists reports whether an account uses email.
func (s *AuthService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) sendActivation(ctx context.Context, user *domain.User) error {
	return s.mail.Send(ctx, mailer.ActivationMessage(s.cfg.PublicBaseURL, user))
}
