package service

import (
	"errors"
	"fmt"
)

// Business errors surfaced to the transport layer, which maps them to HTTP
// statuses in one place (see handler.statusFor).
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrEntryNotFound      = errors.New("stock entry not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrProductNameTaken   = errors.New("a product with this name already exists")
	ErrNegativeStock      = errors.New("initial stock cannot be negative")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSaleAlreadyPaid    = errors.New("sale is already paid")
	ErrNoOtp              = errors.New("no reset code was generated for this user")
	ErrOtpExpired         = errors.New("reset code has expired")
	ErrOtpMismatch        = errors.New("invalid reset code")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrDeliveryFailed     = errors.New("failed to send the reset code by email")
	ErrRoleNotAllowed     = errors.New("only the configured admin account can hold the admin role")
)

// AccountLockedError reports a temporary lockout with the remaining whole
// minutes, which the login response message must include.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d minute(s)", e.RemainingMinutes)
}
