package service

import (
	"errors"
	"strings"
)

// ValidationError несет список сообщений для пользователя в исходном порядке.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrUnknownAccount  = errors.New("unknown account")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAccountDisabled = errors.New("account disabled")
)
