package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LeJamon/xrpl-ladder/internal/config"
	"github.com/LeJamon/xrpl-ladder/internal/core/ladder"
)

// ladderFlags are the distribution parameters shared by plan and
// submit.
type ladderFlags struct {
	bottomMC float64
	topMC    float64
	orders   int
	tokens   float64
	supply   float64
	mode     string
}

func (f *ladderFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.bottomMC, "bottom-mc", 0, "bottom market cap in XRP (required)")
	cmd.Flags().Float64Var(&f.topMC, "top-mc", 0, "top market cap in XRP (required)")
	cmd.Flags().IntVar(&f.orders, "orders", 0, "number of orders in the ladder (required)")
	cmd.Flags().Float64Var(&f.tokens, "tokens", 0, "total tokens to sell across the ladder (required)")
	cmd.Flags().Float64Var(&f.supply, "supply", 0, "circulating token supply (required)")
	cmd.Flags().StringVar(&f.mode, "mode", "linear", "price spread: linear, logarithmic or fibonacci")

	for _, name := range []string{"bottom-mc", "top-mc", "orders", "tokens", "supply"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
}

func (f *ladderFlags) request() (ladder.DistributionRequest, error) {
	req := ladder.DistributionRequest{
		BottomMarketCap: f.bottomMC,
		TopMarketCap:    f.topMC,
		OrderCount:      f.orders,
		TotalTokens:     f.tokens,
		TokenSupply:     f.supply,
	}
	switch f.mode {
	case "linear":
		req.Mode = ladder.ModeLinear
	case "logarithmic", "log":
		req.Mode = ladder.ModeLogarithmic
	case "fibonacci", "fib":
		req.Mode = ladder.ModeFibonacci
	default:
		return req, fmt.Errorf("unknown mode %q (want linear, logarithmic or fibonacci)", f.mode)
	}
	return req, nil
}

func limitsFromConfig(cfg *config.Config) ladder.Limits {
	return ladder.Limits{
		MinOrders:    cfg.Ladder.MinOrders,
		MaxOrders:    cfg.Ladder.MaxOrders,
		MinOrderSize: cfg.Ladder.MinOrderSize,
	}
}

func printLadder(orders []ladder.OrderSpec) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tPRICE (XRP)\tAMOUNT (TOKENS)\tMARKET CAP\tTOTAL XRP")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%.6f\t%.2f\t%.0f\t%.4f\n",
			o.Index, o.Price, o.Amount, o.MarketCap, o.TotalXRP())
	}
	w.Flush()
}

func printSummary(orders []ladder.OrderSpec) {
	s := ladder.Summarize(orders)
	fmt.Printf("\nOrders: %d  Tokens: %.2f  Total: %.4f XRP  Avg price: %.6f\n",
		s.OrderCount, s.TotalTokens, s.TotalXRP, s.AveragePrice)
	fmt.Printf("Price range: %.6f - %.6f XRP\n", s.MinPrice, s.MaxPrice)
	fmt.Printf("Owner reserve while open: %.0f XRP\n", s.ReserveXRP)
}
