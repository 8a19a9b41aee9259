package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"indico/config"
	"indico/internal/auth"
	"indico/internal/domain"
	"indico/internal/models"
	"indico/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, DisplayName: u.Name, Role: u.Role}
}

func (s *AuthService) issue(u *models.User) (Tokens, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, identityOf(u))
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// Register creates a USER account. Roles are never taken from input.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, Tokens, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, Tokens{}, err
	}
	taken, err := s.userRepo.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, Tokens{}, err
	}
	if taken {
		return nil, Tokens{}, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Tokens{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, Tokens{}, err
	}
	u := &models.User{
		ID:           id.String(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, Tokens{}, fmt.Errorf("create user: %w", err)
	}
	tokens, err := s.issue(u)
	return u, tokens, err
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, Tokens, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidCreds
		}
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, Tokens{}, ErrInvalidCreds
	}
	tokens, err := s.issue(u)
	return u, tokens, err
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (Tokens, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, auth.ErrInvalidToken
		}
		return Tokens{}, err
	}
	return s.issue(u)
}
