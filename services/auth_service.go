package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"triptracker/models"
	"triptracker/repository"
	"triptracker/store"
	"triptracker/utils/errors"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.NewAPIError("INVALID_CREDENTIALS", "Invalid mail or password", http.StatusUnauthorized)

type AuthService struct {
	profiles  *ProfileService
	repo      *repository.ProfileRepository
	jwtSecret string
	now       func() time.Time
}

func NewAuthService(profiles *ProfileService, repo *repository.ProfileRepository, jwtSecret string) *AuthService {
	return &AuthService{profiles: profiles, repo: repo, jwtSecret: jwtSecret, now: time.Now}
}

// Register creates the profile and stores a bcrypt hash of password.
func (s *AuthService) Register(ctx context.Context, p models.UserProfile, password string) (string, error) {
	if len(password) < 6 {
		return "", errors.NewAPIError("WEAK_PASSWORD", "Password must have at least 6 characters", http.StatusBadRequest)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "failed to hash password", http.StatusInternalServerError)
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return "", err
	}
	mail := strings.TrimSpace(p.Mail)
	if err := s.repo.PutCredential(ctx, models.Credential{Mail: mail, PasswordHash: string(passwordHash)}); err != nil {
		// A profile without a credential would block the mail for good.
		if rmErr := s.repo.Remove(ctx, mail); rmErr != nil {
			log.Printf("Failed to roll back profile %s after credential error: %v", mail, rmErr)
		}
		return "", err
	}
	return s.token(mail)
}

// Login checks password against the stored hash and returns a signed token.
func (s *AuthService) Login(ctx context.Context, mail, password string) (string, error) {
	cred, err := s.repo.GetCredential(ctx, strings.TrimSpace(mail))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.token(cred.Mail)
}

func (s *AuthService) token(mail string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mail": mail,
		"exp":  s.now().Add(tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}
