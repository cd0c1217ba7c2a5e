package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

var validate = validator.New()

type AuthService struct {
	users     repository.UserRepository
	carts     *CartService
	jwtSecret string
	jwtTTL    time.Duration
}

func NewAuthService(users repository.UserRepository, carts *CartService, jwtSecret string, jwtTTL time.Duration) *AuthService {
	return &AuthService{users: users, carts: carts, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: please provide a valid email", ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if req.Password != req.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleForEmail(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

// Login checks the credentials and, when a guest cart id is given, folds
// that cart into the user's. A failed merge never fails the login.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if req.CartID != "" && s.carts != nil {
		if err := s.carts.MergeGuest(ctx, user.ID, req.CartID); err != nil {
			slog.Warn("Guest cart merge failed", "user_id", user.ID, "cart_id", req.CartID, "err", err)
		}
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateAddress stores the trimmed shipping address. All fields are
// required.
func (s *AuthService) UpdateAddress(ctx context.Context, userID int64, addr models.Address) (*models.User, error) {
	if !addr.Complete() {
		return nil, ErrIncompleteAddress
	}
	addr = addr.Trimmed()
	err := s.users.UpdateAddress(ctx, userID, addr)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return s.Profile(ctx, userID)
}
