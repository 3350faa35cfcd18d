package accounts

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrFieldsRequired     = errors.New("username and password are required")
	ErrUsernameReserved   = errors.New("username not allowed")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrRootImmutable      = errors.New("root account cannot be modified")
	ErrInvalidRole        = errors.New("invalid role")
)
