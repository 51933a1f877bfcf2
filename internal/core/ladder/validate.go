package ladder

import (
	"fmt"
	"math"
)

// ErrorKind identifies which rule a ValidationError violated.
type ErrorKind int

const (
	// ErrMissingField - a required numeric field is absent or NaN.
	ErrMissingField ErrorKind = iota
	// ErrInvalidRange - bottom market cap is not below top market cap.
	ErrInvalidRange
	// ErrOrderCountOutOfBounds - order count outside configured bounds.
	ErrOrderCountOutOfBounds
	// ErrNonPositiveQuantity - token quantity or supply is not positive.
	ErrNonPositiveQuantity
	// ErrOrderTooSmall - per-rung token quantity below the minimum.
	ErrOrderTooSmall
	// ErrInsufficientBalance - selling more tokens than the caller holds.
	ErrInsufficientBalance
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissingField:
		return "missing field"
	case ErrInvalidRange:
		return "invalid range"
	case ErrOrderCountOutOfBounds:
		return "order count out of bounds"
	case ErrNonPositiveQuantity:
		return "non-positive quantity"
	case ErrOrderTooSmall:
		return "order too small"
	case ErrInsufficientBalance:
		return "insufficient balance"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ValidationError reports the first violated rule with the offending
// field and value, enough for a caller-facing message.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Value float64
	msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Field, e.msg)
}

func validationErrorf(kind ErrorKind, field string, value float64, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Value: value, msg: fmt.Sprintf(format, args...)}
}

// Limits holds the configurable validation bounds.
type Limits struct {
	// MinOrders is the smallest accepted order count. Values below 2
	// are meaningless here: a single rung has no price step.
	MinOrders int
	// MaxOrders caps the order count. Zero means unbounded, the
	// sequential-signing policy; a ledger-level batch backend would set
	// its own ceiling here.
	MaxOrders int
	// MinOrderSize is the smallest accepted per-rung token quantity.
	MinOrderSize float64
}

// DefaultLimits returns the sequential-signing bounds: at least two
// rungs, no upper ceiling, dust rungs below one millionth rejected.
func DefaultLimits() Limits {
	return Limits{MinOrders: 2, MaxOrders: 0, MinOrderSize: 1e-6}
}

// Validate checks a request against the default limits.
func Validate(req DistributionRequest) error {
	return ValidateWithLimits(req, DefaultLimits())
}

// ValidateWithLimits checks every business rule in a fixed order and
// returns on the first violation. Pure, no side effects.
func ValidateWithLimits(req DistributionRequest, limits Limits) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"bottomMarketCap", req.BottomMarketCap},
		{"topMarketCap", req.TopMarketCap},
		{"orderCount", float64(req.OrderCount)},
		{"totalTokens", req.TotalTokens},
		{"tokenSupply", req.TokenSupply},
	}
	for _, f := range fields {
		if f.value == 0 || math.IsNaN(f.value) {
			return validationErrorf(ErrMissingField, f.name, f.value, "required value is missing")
		}
	}

	if req.BottomMarketCap < 0 {
		return validationErrorf(ErrInvalidRange, "bottomMarketCap", req.BottomMarketCap,
			"bottom market cap %g must be positive", req.BottomMarketCap)
	}
	if req.BottomMarketCap >= req.TopMarketCap {
		return validationErrorf(ErrInvalidRange, "bottomMarketCap", req.BottomMarketCap,
			"bottom market cap %g must be below top market cap %g", req.BottomMarketCap, req.TopMarketCap)
	}

	if limits.MinOrders < 2 {
		limits.MinOrders = 2
	}
	if req.OrderCount < limits.MinOrders {
		return validationErrorf(ErrOrderCountOutOfBounds, "orderCount", float64(req.OrderCount),
			"order count %d below minimum %d", req.OrderCount, limits.MinOrders)
	}
	if limits.MaxOrders > 0 && req.OrderCount > limits.MaxOrders {
		return validationErrorf(ErrOrderCountOutOfBounds, "orderCount", float64(req.OrderCount),
			"order count %d above maximum %d", req.OrderCount, limits.MaxOrders)
	}

	if req.TotalTokens <= 0 {
		return validationErrorf(ErrNonPositiveQuantity, "totalTokens", req.TotalTokens,
			"total token quantity %g must be positive", req.TotalTokens)
	}
	if req.TokenSupply <= 0 {
		return validationErrorf(ErrNonPositiveQuantity, "tokenSupply", req.TokenSupply,
			"token supply %g must be positive", req.TokenSupply)
	}

	perOrder := req.TotalTokens / float64(req.OrderCount)
	if perOrder < limits.MinOrderSize {
		return validationErrorf(ErrOrderTooSmall, "totalTokens", perOrder,
			"each order would sell %g tokens, below the minimum of %g", perOrder, limits.MinOrderSize)
	}

	if req.AvailableBalance != nil && req.TotalTokens > *req.AvailableBalance {
		return validationErrorf(ErrInsufficientBalance, "totalTokens", req.TotalTokens,
			"selling %g tokens but only %g held", req.TotalTokens, *req.AvailableBalance)
	}

	return nil
}
