package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rentals/internal/auth"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = time.Hour

type AdminAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	CreateAdmin(ctx context.Context, email, password string) error
}

type adminAuthService struct {
	repo   repository.AdminAuthRepository
	secret []byte
	log    *slog.Logger
}

func NewAdminAuthService(repo repository.AdminAuthRepository, jwtSecret string, log *slog.Logger) AdminAuthService {
	return &adminAuthService{repo: repo, secret: []byte(jwtSecret), log: log}
}

// Login checks the password against the stored bcrypt hash and returns a
// one hour admin token.
func (s *adminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperrors.Validation("Email and password are required", nil)
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Internal("Could not load admin", err)
	}
	if admin == nil {
		return "", apperrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.log.WarnContext(ctx, "Admin login failed", "email", email)
		return "", apperrors.Unauthorized("Invalid credentials")
	}

	token, err := auth.IssueToken(s.secret, strconv.Itoa(admin.ID), admin.Email, auth.RoleAdmin, adminTokenTTL)
	if err != nil {
		return "", apperrors.Internal("Could not sign token", err)
	}
	return token, nil
}

func (s *adminAuthService) CreateAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return apperrors.Validation("Email and password are required", nil)
	}
	if len(password) < 8 {
		return apperrors.Validation("Password must be at least 8 characters", map[string]any{"password": "too short"})
	}

	if err := s.repo.CreateAdmin(ctx, email, password); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("Admin already exists")
		}
		return apperrors.Internal("Could not create admin", err)
	}
	return nil
}
