package xrpamount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFloorFromDecimalXRP(t *testing.T) {
	tests := []struct {
		xrp  string
		want int64
	}{
		{"1", 1_000_000},
		{"0.0000015", 1},
		{"0.0000009", 0},
		{"1000.123456789", 1_000_123_456},
		{"0", 0},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.xrp)
		assert.EqualValues(t, tt.want, FloorFromDecimalXRP(d).Drops(), "xrp %s", tt.xrp)
	}
}

func TestArithmetic(t *testing.T) {
	a := NewXRPAmount(12)
	assert.EqualValues(t, 60, a.Mul(5).Drops())
	assert.EqualValues(t, 24, a.Add(a).Drops())
	assert.True(t, a.IsPositive())
	assert.True(t, NewXRPAmount(0).IsZero())
	assert.Equal(t, "12", a.String())
	assert.InDelta(t, 0.000012, a.DecimalXRP(), 1e-12)
}
