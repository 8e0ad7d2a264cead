package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation")        // 400
	ErrNotFound         = errors.New("not found")         // 404
	ErrConflict         = errors.New("conflict")          // 409
	ErrPermissionDenied = errors.New("not permitted")     // 403
	ErrUnauthorized     = errors.New("not authenticated") // 401
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// MaxLineQuantity bounds a single order or cart line, which also keeps
// per-product demand sums far from integer overflow.
const MaxLineQuantity = 10000

var (
	ErrEmptyOrder           = &ValidationError{Field: "items", Reason: "order must contain at least one item"}
	ErrInvalidQuantity      = &ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
	ErrQuantityTooLarge     = &ValidationError{Field: "quantity", Reason: fmt.Sprintf("quantity must be at most %d", MaxLineQuantity)}
	ErrInvalidPaymentMethod = &ValidationError{Field: "payment_method", Reason: "unsupported payment method"}
)

type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrNotFound }

type Shortage struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (id %d): requested %d, available %d", s.Title, s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }
