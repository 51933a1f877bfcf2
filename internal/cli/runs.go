package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/xrpl-ladder/internal/journal"
)

var runsShowOutcomes bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded signing runs",
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().BoolVar(&runsShowOutcomes, "outcomes", false, "also list per-offer outcomes")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	j, err := journal.Open(ctx, cfg.Journal.Path, nil)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tRUN\tCURRENCY\tSIGNED\tABORTED")
	for _, r := range runs {
		aborted := "no"
		if r.Aborted {
			aborted = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.ID, r.Currency,
			r.SignedCount, r.Requested, aborted)
	}
	w.Flush()

	if !runsShowOutcomes {
		return nil
	}
	for _, r := range runs {
		outcomes, err := j.Outcomes(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s:\n", r.ID)
		for _, o := range outcomes {
			line := fmt.Sprintf("  %d: %s", o.Position, o.Status)
			if o.TxHash != "" {
				line += " " + o.TxHash
			}
			if o.Reason != "" {
				line += " (" + o.Reason + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}
