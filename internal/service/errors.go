package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"orga/internal/repository"
)

var validate = validator.New()

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateEmail      = errors.New("email already in use")
	ErrDuplicateDomain     = errors.New("domain already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotFound            = errors.New("not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrTenantInactive      = errors.New("tenant is inactive")
	ErrUserLimitReached    = errors.New("user limit reached")
	ErrProtectedUser       = errors.New("protected user")
	ErrMessageLimitReached = errors.New("monthly message limit reached")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamUnavailable = errors.New("chatbot unavailable")
)

// validationError agrega detalle legible a ErrValidation.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound traduce repository.ErrNotFound; el resto de errores pasa intacto.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail exige una direccion simple "local@dominio" sin nombre visible.
func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
