package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/xrpl-ladder/internal/core/ladder"
	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
	"github.com/LeJamon/xrpl-ladder/internal/journal"
	"github.com/LeJamon/xrpl-ladder/internal/signer/xaman"
	"github.com/LeJamon/xrpl-ladder/internal/xrpl"
)

var (
	submitLadder   ladderFlags
	submitAccount  string
	submitCurrency string
	submitIssuer   string
	submitYes      bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Build the ladder and sign every offer through the wallet",
	Long: `Compute the ladder, validate it against the account's token balance,
build one OfferCreate per rung, and sign them one at a time through
the wallet gateway. Each offer shows a QR code link and a deep link;
approve or reject in the wallet app. On a rejected or failed offer you
are asked whether to continue with the rest of the ladder.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitLadder.register(submitCmd)
	submitCmd.Flags().StringVar(&submitAccount, "account", "", "signing account address (required)")
	submitCmd.Flags().StringVar(&submitCurrency, "currency", "", "token currency code (required)")
	submitCmd.Flags().StringVar(&submitIssuer, "issuer", "", "token issuer address (required)")
	submitCmd.Flags().BoolVarP(&submitYes, "yes", "y", false, "continue past rejected or failed offers without asking")

	for _, name := range []string{"account", "currency", "issuer"} {
		cobra.CheckErr(submitCmd.MarkFlagRequired(name))
	}
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := xaman.NewClient(cfg.Gateway.URL, &http.Client{Timeout: cfg.Gateway.Timeout})
	node, err := xrpl.NewClient(cfg.XRPL.URL, xrpl.WithLogger(logger))
	if err != nil {
		return err
	}

	req, err := submitLadder.request()
	if err != nil {
		return err
	}

	// Gateway health and token balance are independent reads; fetch
	// them together before anything is built.
	var balance decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gateway.Health(gctx)
	})
	g.Go(func() error {
		var err error
		balance, err = node.BalanceOf(gctx, submitAccount, submitCurrency, submitIssuer)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if balance.IsPositive() {
		available, _ := balance.Float64()
		req.AvailableBalance = &available
		logger.Info("token balance",
			zap.String("currency", submitCurrency),
			zap.String("balance", balance.String()))
	} else {
		logger.Warn("no trustline balance found, skipping balance validation",
			zap.String("currency", submitCurrency),
			zap.String("issuer", submitIssuer))
	}

	orders, err := ladder.CalculateWithLimits(req, limitsFromConfig(cfg))
	if err != nil {
		return err
	}
	printLadder(orders)
	printSummary(orders)

	builder := &txbuild.Builder{Sequences: node, Ledger: node}
	descriptors, err := builder.Build(ctx, orders, submitAccount, submitCurrency, submitIssuer)
	if err != nil {
		return err
	}
	fmt.Printf("\nNetwork fees: %s drops total (%d per offer)\n",
		txbuild.TotalFee(len(descriptors)), txbuild.BaseFeeDrops)

	session := &signing.Session{
		QRReady: func(qrURL, deepLink string) {
			fmt.Printf("\nQR code:   %s\nDeep link: %s\n", qrURL, deepLink)
		},
		StatusChanged: func(msg string) {
			fmt.Printf("  %s\n", msg)
		},
		Progress: func(current, total int) {
			fmt.Printf("\n[%d/%d] requesting signature\n", current, total)
		},
	}

	signer := xaman.NewSigner(gateway,
		xaman.WithSession(session),
		xaman.WithPollInterval(cfg.Gateway.PollInterval),
		xaman.WithLogger(logger))
	coordinator := signing.NewCoordinator(signer,
		signing.WithSession(session),
		signing.WithAttemptTimeout(cfg.Signing.AttemptTimeout),
		signing.WithInterSignDelay(cfg.Signing.InterSignDelay),
		signing.WithContinueFunc(continuePolicy()),
		signing.WithLogger(logger))

	result, runErr := coordinator.Run(ctx, descriptors)
	printBatchResult(result)

	jctx := context.Background()
	j, err := journal.Open(jctx, cfg.Journal.Path, logger)
	if err != nil {
		logger.Error("journal unavailable, run not recorded", zap.Error(err))
	} else {
		defer j.Close()
		if _, err := j.Record(jctx, submitAccount, submitCurrency, submitIssuer, result); err != nil {
			logger.Error("journal write failed", zap.Error(err))
		}
	}

	return runErr
}

// continuePolicy implements the continue-or-abort question: --yes
// answers it automatically, otherwise the terminal asks.
func continuePolicy() signing.ContinueFunc {
	if submitYes {
		return func(int) bool { return true }
	}
	reader := bufio.NewReader(os.Stdin)
	return func(index int) bool {
		fmt.Printf("Offer %d was not signed. Continue with the remaining offers? [y/N] ", index+1)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

func printBatchResult(result signing.BatchResult) {
	fmt.Printf("\nSigned %d of %d offers", result.SignedCount, result.Requested)
	if result.Aborted {
		fmt.Print(" (aborted)")
	}
	fmt.Println()
	for i, outcome := range result.Outcomes {
		switch outcome.Status {
		case signing.StatusSigned:
			if outcome.TxHash != "" {
				fmt.Printf("  %d: signed %s\n", i+1, outcome.TxHash)
			} else {
				fmt.Printf("  %d: signed\n", i+1)
			}
		case signing.StatusRejected:
			fmt.Printf("  %d: rejected\n", i+1)
		case signing.StatusFailed:
			fmt.Printf("  %d: failed (%s)\n", i+1, outcome.Reason)
		}
	}
}
