package ladder

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Reserve figures for offer placement, in XRP.
// Each open offer holds 2 XRP of owner reserve on top of the 10 XRP
// account base reserve.
const (
	baseReserveXRP  = 10
	offerReserveXRP = 2
)

// Summary aggregates a ladder for display before signing.
type Summary struct {
	OrderCount   int
	TotalTokens  float64
	TotalXRP     float64
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	// ReserveXRP is the XRP an account must hold to keep every rung
	// open at once.
	ReserveXRP float64
}

// Summarize computes ladder totals. Returns the zero Summary for an
// empty ladder.
func Summarize(orders []OrderSpec) Summary {
	if len(orders) == 0 {
		return Summary{}
	}

	s := Summary{
		OrderCount: len(orders),
		MinPrice:   orders[0].Price,
		MaxPrice:   orders[0].Price,
	}
	for _, o := range orders {
		s.TotalTokens += o.Amount
		s.TotalXRP += o.TotalXRP()
		if o.Price < s.MinPrice {
			s.MinPrice = o.Price
		}
		if o.Price > s.MaxPrice {
			s.MaxPrice = o.Price
		}
	}
	s.AveragePrice = s.TotalXRP / s.TotalTokens
	s.ReserveXRP = RequiredReserveXRP(len(orders))
	return s
}

// RequiredReserveXRP returns the XRP reserve needed to keep n offers open.
func RequiredReserveXRP(n int) float64 {
	return baseReserveXRP + float64(n)*offerReserveXRP
}

var csvHeader = []string{"Order", "Price (XRP)", "Amount (Tokens)", "Market Cap", "Total XRP"}

// WriteCSV exports a ladder, one row per rung.
func WriteCSV(w io.Writer, orders []OrderSpec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			strconv.Itoa(o.Index),
			strconv.FormatFloat(o.Price, 'f', 6, 64),
			strconv.FormatFloat(o.Amount, 'f', -1, 64),
			strconv.FormatFloat(o.MarketCap, 'f', 2, 64),
			strconv.FormatFloat(o.TotalXRP(), 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV imports a previously exported ladder and re-checks the
// per-rung invariants, including the duplicate-price defect.
func ReadCSV(r io.Reader) ([]OrderSpec, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ladder csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("ladder csv: no order rows")
	}

	orders := make([]OrderSpec, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 4 {
			return nil, fmt.Errorf("ladder csv: row %d has %d columns, want at least 4", i+2, len(rec))
		}
		index, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("ladder csv: row %d index: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("ladder csv: row %d price: %w", i+2, err)
		}
		amount, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("ladder csv: row %d amount: %w", i+2, err)
		}
		marketCap, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("ladder csv: row %d market cap: %w", i+2, err)
		}
		orders = append(orders, OrderSpec{Index: index, Price: price, Amount: amount, MarketCap: marketCap})
	}

	if err := CheckOrders(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CheckOrders re-validates a ladder that did not come out of Calculate:
// positive prices and amounts, no duplicate prices.
func CheckOrders(orders []OrderSpec) error {
	if len(orders) == 0 {
		return fmt.Errorf("ladder: no orders")
	}
	seen := make(map[float64]int, len(orders))
	for i, o := range orders {
		if o.Price <= 0 {
			return fmt.Errorf("ladder: order %d price %g must be positive", i+1, o.Price)
		}
		if o.Amount <= 0 {
			return fmt.Errorf("ladder: order %d amount %g must be positive", i+1, o.Amount)
		}
		if prev, dup := seen[o.Price]; dup {
			return fmt.Errorf("ladder: orders %d and %d share price %g", prev+1, i+1, o.Price)
		}
		seen[o.Price] = i
	}
	return nil
}
