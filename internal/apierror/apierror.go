// Package apierror provides the JSON error envelopes returned by the API.
// Handlers build every 4xx/5xx body through this package so internal details
// (SQL errors, stack traces) never reach clients.
package apierror

import "github.com/shopspring/decimal"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// InsufficientStock tells the caller which entry would have driven stock
// negative and by how much, so the request can be shrunk or split.
type InsufficientStock struct {
	Detail    string          `json:"detail"`
	ItemID    string          `json:"item_id"`
	LotID     *string         `json:"lot_id,omitempty"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortfall decimal.Decimal `json:"shortfall"`
}
