package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/terraincognita07/pulselog/internal/db"
	"github.com/terraincognita07/pulselog/internal/security"
	"github.com/terraincognita07/pulselog/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 12

// ResetPasswordOptions drives the reset-password subcommand. With
// PromptPassword the operator types the new password; otherwise a temporary
// one is generated and the user must change it on next login.
type ResetPasswordOptions struct {
	DBPath         string
	Email          string
	PromptPassword bool
	Stdin          *os.File
	Out            io.Writer
}

func RunResetPasswordCommand(options ResetPasswordOptions) error {
	out := options.Out
	if out == nil {
		out = os.Stdout
	}

	email := services.NormalizeAuthEmail(options.Email)
	if email == "" {
		return errors.New("a valid email is required")
	}

	database, err := db.OpenSQLite(options.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}
	users := db.NewUserRepository(database)

	if options.PromptPassword {
		stdin := options.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		password, err := promptNewPassword(out, func() ([]byte, error) {
			return readPasswordNoEcho(stdin)
		})
		if err != nil {
			return err
		}
		if err := resetUserPassword(users, email, password, false); err != nil {
			return err
		}
		fmt.Fprintln(out, "Password reset successful")
		return nil
	}

	temporaryPassword, err := generateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}
	if err := resetUserPassword(users, email, temporaryPassword, true); err != nil {
		return err
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	fmt.Fprintln(out, "User must change password on next login.")
	return nil
}

func resetUserPassword(users *db.UserRepository, email string, password string, mustChange bool) error {
	user, err := users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s not found", email)
		}
		return fmt.Errorf("load user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePassword(user.ID, string(passwordHash), mustChange); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

// promptNewPassword asks twice and applies the registration strength rules.
func promptNewPassword(out io.Writer, read func() ([]byte, error)) (string, error) {
	fmt.Fprint(out, "New password: ")
	password, err := read()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirmation, err := read()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}

	if string(password) != string(confirmation) {
		return "", services.ErrAuthPasswordMismatch
	}
	if err := services.ValidatePasswordStrength(string(password)); err != nil {
		return "", err
	}
	return string(password), nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	return security.RandomString(length, alphabet)
}
