package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const maxDisplayNameLength = 64

var (
	ErrDisplayNameTooLong                = errors.New("display name too long")
	ErrProfilePasswordMissing            = errors.New("password missing")
	ErrProfilePasswordInvalid            = errors.New("password invalid")
	ErrProfilePasswordChangeInvalidInput = errors.New("password change invalid input")
	ErrProfilePasswordMismatch           = errors.New("new passwords do not match")
	ErrProfileNewPasswordMustDiffer      = errors.New("new password must differ")
)

type ProfileUserRepository interface {
	UpdateDisplayName(userID uint, displayName string) error
	UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error
	DeleteAccountAndRelatedData(userID uint) error
}

type ProfileService struct {
	users ProfileUserRepository
}

func NewProfileService(users ProfileUserRepository) *ProfileService {
	return &ProfileService{users: users}
}

func NormalizeDisplayName(raw string) (string, error) {
	displayName := strings.TrimSpace(raw)
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return "", ErrDisplayNameTooLong
	}
	return displayName, nil
}

func (service *ProfileService) UpdateDisplayName(userID uint, raw string) (string, error) {
	displayName, err := NormalizeDisplayName(raw)
	if err != nil {
		return "", err
	}
	if err := service.users.UpdateDisplayName(userID, displayName); err != nil {
		return "", err
	}
	return displayName, nil
}

func (service *ProfileService) ValidatePasswordChange(passwordHash string, currentPassword string, newPassword string, confirmPassword string) error {
	currentPassword = strings.TrimSpace(currentPassword)
	newPassword = strings.TrimSpace(newPassword)
	confirmPassword = strings.TrimSpace(confirmPassword)

	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrProfilePasswordChangeInvalidInput
	}
	if newPassword != confirmPassword {
		return ErrProfilePasswordMismatch
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(currentPassword)) != nil {
		return ErrProfilePasswordInvalid
	}
	if currentPassword == newPassword {
		return ErrProfileNewPasswordMustDiffer
	}
	return ValidatePasswordStrength(newPassword)
}

// ChangePassword returns the new hash so the caller can reissue its session.
func (service *ProfileService) ChangePassword(userID uint, passwordHash string, currentPassword string, newPassword string, confirmPassword string) (string, error) {
	if err := service.ValidatePasswordChange(passwordHash, currentPassword, newPassword, confirmPassword); err != nil {
		return "", err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(userID, string(newHash), false); err != nil {
		return "", err
	}
	return string(newHash), nil
}

func (service *ProfileService) ValidateDeleteAccountPassword(passwordHash string, rawPassword string) error {
	password := strings.TrimSpace(rawPassword)
	if password == "" {
		return ErrProfilePasswordMissing
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return ErrProfilePasswordInvalid
	}
	return nil
}

func (service *ProfileService) DeleteAccount(userID uint, passwordHash string, rawPassword string) error {
	if err := service.ValidateDeleteAccountPassword(passwordHash, rawPassword); err != nil {
		return err
	}
	return service.users.DeleteAccountAndRelatedData(userID)
}
