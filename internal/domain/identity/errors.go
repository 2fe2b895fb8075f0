package identity

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDNITaken           = errors.New("dni already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
