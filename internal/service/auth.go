package service

import (
	"context"
	"errors"
	"fmt"

	"speedrun/backend/internal/models"
	"speedrun/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	Token string
	User  models.User
}

// AuthService issues access tokens.
type AuthService struct {
	users  *UserService
	issuer *jwt.Issuer
}

func NewAuthService(users *UserService, issuer *jwt.Issuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

// Register creates a regular user and logs them in.
func (s *AuthService) Register(ctx context.Context, in UserInput) (AuthResult, error) {
	in.Role = models.RoleUser
	user, err := s.users.Create(ctx, in)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

// Login verifies credentials given as email or username. Unknown users and
// wrong passwords both yield ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, login, password string) (AuthResult, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrAuthentication
		}
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrAuthentication
	}
	return s.issue(user)
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
	token, err := s.issuer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}
