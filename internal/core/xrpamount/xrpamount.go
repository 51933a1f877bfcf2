// Package xrpamount represents native XRP values in drops.
package xrpamount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// XRPAmount is a quantity of XRP counted in drops.
type XRPAmount int64

const DropsPerXRP XRPAmount = 1_000_000

func NewXRPAmount(drops int64) XRPAmount {
	return XRPAmount(drops)
}

// FloorFromDecimalXRP converts a decimal XRP value to drops, truncating
// toward zero. Flooring never asks the counterparty for more than the
// decimal value represents.
func FloorFromDecimalXRP(xrp decimal.Decimal) XRPAmount {
	return XRPAmount(xrp.Mul(decimal.NewFromInt(int64(DropsPerXRP))).Floor().IntPart())
}

func (x XRPAmount) Drops() int64 {
	return int64(x)
}

func (x XRPAmount) DecimalXRP() float64 {
	return float64(x) / float64(DropsPerXRP)
}

func (x XRPAmount) Add(other XRPAmount) XRPAmount {
	return x + other
}

func (x XRPAmount) Mul(factor int64) XRPAmount {
	return x * XRPAmount(factor)
}

func (x XRPAmount) IsPositive() bool {
	return x > 0
}

func (x XRPAmount) IsZero() bool {
	return x == 0
}

// String renders the drop count, the form ledger transactions carry
// native amounts in.
func (x XRPAmount) String() string {
	return fmt.Sprintf("%d", int64(x))
}
