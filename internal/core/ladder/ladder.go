// Package ladder computes market-cap distributed sell ladders.
//
// A ladder spans a market-cap range [bottom, top] and splits a token
// quantity into orderCount rungs, one limit order per rung. Price per
// rung is derived from market cap via price = marketCap / tokenSupply,
// so the market cap here is a parameterization device, not a live
// market metric.
package ladder

import (
	"fmt"
	"math"
	"sort"
)

// Mode selects how rung prices are spaced across the range.
type Mode int

const (
	// ModeLinear spaces prices with equal increments.
	ModeLinear Mode = iota
	// ModeLogarithmic spaces prices multiplicatively, concentrating
	// rungs near the bottom of the range.
	ModeLogarithmic
	// ModeFibonacci spaces prices by cumulative fibonacci ratios.
	ModeFibonacci
)

func (m Mode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeLogarithmic:
		return "logarithmic"
	case ModeFibonacci:
		return "fibonacci"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// DistributionRequest describes a ladder to generate.
// All quantities are denominated in the token being sold except the
// market caps, which are in XRP terms (marketCap = price * tokenSupply).
type DistributionRequest struct {
	BottomMarketCap float64
	TopMarketCap    float64
	OrderCount      int
	TotalTokens     float64
	TokenSupply     float64
	Mode            Mode

	// AvailableBalance, when non-nil, is the caller's held balance of
	// the token and caps TotalTokens. Nil skips the balance check.
	AvailableBalance *float64
}

// OrderSpec is one rung of a generated ladder.
// Index reflects the final ascending-price position, starting at 1.
type OrderSpec struct {
	Index     int
	Price     float64
	Amount    float64
	MarketCap float64
}

// TotalXRP returns the XRP proceeds if the rung fills completely.
func (o OrderSpec) TotalXRP() float64 {
	return o.Amount * o.Price
}

// Calculate validates the request and produces the ladder, ordered by
// strictly increasing price. Prices that collide within float64
// resolution are reported as an error rather than silently merged.
func Calculate(req DistributionRequest) ([]OrderSpec, error) {
	return CalculateWithLimits(req, DefaultLimits())
}

// CalculateWithLimits is Calculate with caller-supplied validation bounds.
func CalculateWithLimits(req DistributionRequest, limits Limits) ([]OrderSpec, error) {
	if err := ValidateWithLimits(req, limits); err != nil {
		return nil, err
	}

	bottomPrice := req.BottomMarketCap / req.TokenSupply
	topPrice := req.TopMarketCap / req.TokenSupply
	tokensPerOrder := req.TotalTokens / float64(req.OrderCount)

	prices := make([]float64, req.OrderCount)
	switch req.Mode {
	case ModeLogarithmic:
		logStep := (math.Log(topPrice) - math.Log(bottomPrice)) / float64(req.OrderCount-1)
		for i := range prices {
			prices[i] = math.Exp(math.Log(bottomPrice) + logStep*float64(i))
		}
	case ModeFibonacci:
		prices = fibonacciPrices(bottomPrice, topPrice, req.OrderCount)
	default:
		step := (topPrice - bottomPrice) / float64(req.OrderCount-1)
		for i := range prices {
			prices[i] = bottomPrice + step*float64(i)
		}
	}

	orders := make([]OrderSpec, req.OrderCount)
	for i, p := range prices {
		orders[i] = OrderSpec{
			Price:     p,
			Amount:    tokensPerOrder,
			MarketCap: p * req.TokenSupply,
		}
	}

	// Linear and logarithmic ladders are ascending by construction;
	// sorting keeps the invariant regardless of mode.
	sort.Slice(orders, func(i, j int) bool { return orders[i].Price < orders[j].Price })
	for i := range orders {
		orders[i].Index = i + 1
	}

	for i := 1; i < len(orders); i++ {
		if orders[i].Price <= orders[i-1].Price {
			return nil, fmt.Errorf("ladder: price step below float64 resolution at rung %d (price %g)", i+1, orders[i].Price)
		}
	}

	return orders, nil
}

// fibonacciPrices places rung i at the cumulative fibonacci ratio
// sum(fib[0..i]) / sum(fib), front-loading rungs toward the bottom of
// the range. The last rung lands exactly on the top price.
func fibonacciPrices(bottom, top float64, n int) []float64 {
	fib := make([]float64, n)
	fib[0] = 1
	if n > 1 {
		fib[1] = 1
	}
	for i := 2; i < n; i++ {
		fib[i] = fib[i-1] + fib[i-2]
	}

	var sum float64
	for _, f := range fib {
		sum += f
	}

	prices := make([]float64, n)
	var cum float64
	for i := 0; i < n; i++ {
		cum += fib[i]
		prices[i] = bottom + (top-bottom)*(cum/sum)
	}
	return prices
}
