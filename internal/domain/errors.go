package domain

import (
	"errors"
	"fmt"
)

// Общие доменные ошибки
var (
	ErrNotFound   = notFoundError("not found")
	ErrValidation = validationError("invalid data")

	ErrOrderNotFound   = notFoundError("order not found")
	ErrProductNotFound = notFoundError("product not found")

	ErrEmptyCart            = validationError("cart is empty")
	ErrInvalidAmount        = validationError("invalid amount")
	ErrInsufficientStock    = validationError("insufficient stock")
	ErrInvalidPaymentMethod = validationError("unsupported payment method")
	ErrInvalidQuantity      = validationError("quantity must be greater than zero")

	ErrInvalidSignature = rejectedError("invalid signature")
	ErrAmountMismatch   = rejectedError("amount mismatch")

	ErrConfiguration = configError("configuration error")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

// rejectedError — отказ во входящем уведомлении шлюза.
type rejectedError string

func (e rejectedError) Error() string { return string(e) }

type configError string

func (e configError) Error() string { return string(e) }

// InsufficientStockError — запрошено больше, чем есть на складе.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConfigurationError — не задан обязательный параметр конфигурации.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is required", e.Field)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// IsNotFound сообщает, относится ли ошибка к «не найдено».
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

// IsValidation сообщает, вызвана ли ошибка некорректными входными данными.
func IsValidation(err error) bool {
	var e validationError
	return errors.As(err, &e)
}
