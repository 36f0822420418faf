package usecase

import (
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %w", entity.ErrValidation, err)
		}
		return "", err
	}

	return string(hash), nil
}

// passwordMatches reports whether password is the one the stored hash was made from.
func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
