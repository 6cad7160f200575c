package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"github.com/ArowuTest/padel-arena-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

type authService struct {
	adminRepo repositories.AdminUserRepository
	tokens    *jwt.TokenService
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(adminRepo repositories.AdminUserRepository, tokens *jwt.TokenService) AuthService {
	return &authService{
		adminRepo: adminRepo,
		tokens:    tokens,
	}
}

// Login checks the admin password and issues an access token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		slog.Warn("Admin login rejected", "email", admin.Email)
		return nil, ErrInvalidCredentials
	}

	role := admin.Role
	if role == "" {
		role = models.RoleAdmin
	}
	token, expiresAt, err := s.tokens.Issue(admin.ID.Hex(), admin.Email, role)
	if err != nil {
		return nil, err
	}
	slog.Info("Admin logged in", "adminId", admin.ID.Hex())
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, Email: admin.Email, Role: role}, nil
}

// CreateAdmin stores a new admin with a bcrypt hashed password
func (s *authService) CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.AdminUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", models.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, minPasswordLength)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin, err := s.adminRepo.Create(ctx, &models.AdminUser{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	admin.Password = ""
	return admin, nil
}
