package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/xrpl-ladder/internal/core/ladder"
)

var (
	planLadder  ladderFlags
	planBalance float64
	planCSVPath string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and display a ladder without signing anything",
	Long: `Validate the distribution parameters, compute the ladder, and print
every rung with its price, token amount, market cap and XRP total.
Planning is fully offline; use submit to sign the ladder.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planLadder.register(planCmd)
	planCmd.Flags().Float64Var(&planBalance, "balance", 0, "available token balance to validate against (0 skips the check)")
	planCmd.Flags().StringVar(&planCSVPath, "csv", "", "also export the ladder to this CSV file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := planLadder.request()
	if err != nil {
		return err
	}
	if planBalance > 0 {
		req.AvailableBalance = &planBalance
	}

	orders, err := ladder.CalculateWithLimits(req, limitsFromConfig(cfg))
	if err != nil {
		return err
	}

	printLadder(orders)
	printSummary(orders)

	if planCSVPath != "" {
		f, err := os.Create(planCSVPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", planCSVPath, err)
		}
		defer f.Close()
		if err := ladder.WriteCSV(f, orders); err != nil {
			return fmt.Errorf("export %s: %w", planCSVPath, err)
		}
		fmt.Printf("\nLadder exported to %s\n", planCSVPath)
	}
	return nil
}
