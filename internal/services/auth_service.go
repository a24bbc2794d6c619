package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/pulselog/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrAuthEmailTaken         = errors.New("email already registered")
	ErrAuthInvalidLogin       = errors.New("invalid email or password")
	ErrAuthPasswordMismatch   = errors.New("passwords do not match")
	ErrAuthRegistrationFailed = errors.New("registration failed")
	ErrAuthUserNotFound       = errors.New("user not found")
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(email string) (bool, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	CreateWithDefaultTargets(user *models.User) error
}

type AuthService struct {
	users AuthUserRepository
}

type RegistrationInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates the account together with its default targets.
func (service *AuthService) Register(input RegistrationInput) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(input.Email, input.Password)
	if err != nil {
		return models.User{}, err
	}
	if password != strings.TrimSpace(input.ConfirmPassword) {
		return models.User{}, ErrAuthPasswordMismatch
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}
	displayName, err := NormalizeDisplayName(input.DisplayName)
	if err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegistrationFailed, err)
	}
	if exists {
		return models.User{}, ErrAuthEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegistrationFailed, err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  displayName,
	}
	if err := service.users.CreateWithDefaultTargets(&user); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegistrationFailed, err)
	}
	return user, nil
}

// Authenticate hides whether the email or the password was wrong.
func (service *AuthService) Authenticate(emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, ErrAuthInvalidLogin
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrAuthInvalidLogin
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthInvalidLogin
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrAuthUserNotFound
	}
	return user, err
}
