package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrStorage           = errors.New("storage failure")
)

// Error associa um tipo da taxonomia a uma mensagem segura para o cliente.
// Err, quando presente, é a causa interna e nunca vai para a resposta HTTP.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func InsufficientFunds() error {
	return &Error{Kind: ErrInsufficientFunds, Message: "insufficient balance"}
}

func InvalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

// Storage embrulha falhas de banco; a causa fica só no log
func Storage(err error) error {
	return &Error{Kind: ErrStorage, Message: "internal error", Err: err}
}

// IsDomain indica se err já pertence à taxonomia
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// PublicMessage devolve a mensagem que pode ir para o cliente
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
