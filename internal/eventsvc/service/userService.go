package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages staff and university accounts.
type UserService struct {
	users        UserRepository
	universities UniversityRepository
}

func NewUserService(users UserRepository, universities UniversityRepository) *UserService {
	return &UserService{
		users:        users,
		universities: universities,
	}
}

// CreateUser stores a new account with a bcrypt hash of password.
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if _, err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Infof("user %s created with id %d", user.Username, user.ID)
	return user, nil
}

// CreateUniversity stores a university together with its division
// eligibility.
func (s *UserService) CreateUniversity(ctx context.Context, u *models.University) (*models.University, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return nil, fmt.Errorf("university name is empty: %w", ErrInvalidInput)
	}
	for d := range u.Eligible {
		if !d.Valid() {
			return nil, fmt.Errorf("%q: %w", d, ErrInvalidDivision)
		}
	}

	if _, err := s.universities.CreateUniversity(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetUniversity(ctx context.Context, id int64) (*models.University, error) {
	return s.universities.GetUniversityByID(ctx, id)
}
