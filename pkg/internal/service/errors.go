package service

import (
	"errors"
	"fmt"
)

// 业务错误，调用方用 errors.Is 判断.
var (
	ErrInvalidCode        = errors.New("invalid or already used access code")
	ErrStoreUnavailable   = errors.New("storage temporarily unavailable")
	ErrQuotaExceeded      = errors.New("file limit reached")
	ErrInvalidAccessCodes = errors.New("access codes must be non-empty and unique")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("file not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")

	errNoStore = errors.New("store not configured")
)

// unavailable 把后端错误包装为 ErrStoreUnavailable，保留原始原因.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// invalidInput 附带具体原因的 ErrInvalidInput.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// invalidCodes 附带具体原因的 ErrInvalidAccessCodes.
func invalidCodes(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidAccessCodes, reason)
}
