package domain

import (
	"errors"
	"fmt"
)

// All engine failures are local and recoverable; callers match with
// errors.Is and drive their user-facing messaging from the result.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConflict          = errors.New("conflict")
	ErrUnsupported       = errors.New("unsupported in this server mode")

	ErrNicknameEmpty   = fmt.Errorf("%w: nickname empty", ErrInvalidArgument)
	ErrNicknameTooLong = fmt.Errorf("%w: nickname too long", ErrInvalidArgument)
)
