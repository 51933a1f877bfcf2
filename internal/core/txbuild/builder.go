// Package txbuild converts a ladder into OfferCreate transaction
// descriptors ready for wallet signing.
//
// Each descriptor sells a token quantity (TakerGets) in exchange for
// native XRP (TakerPays). Descriptors carry the ledger's JSON
// transaction shape so a wallet gateway can present them for signing
// without further translation.
package txbuild

import (
	"context"
	"errors"
	"fmt"

	addresscodec "github.com/Peersyst/xrpl-go/address-codec"
	"github.com/shopspring/decimal"

	"github.com/LeJamon/xrpl-ladder/internal/core/ladder"
	"github.com/LeJamon/xrpl-ladder/internal/core/xrpamount"
)

// BaseFeeDrops is the ledger's minimum transaction cost. Fees are flat,
// not estimated: a ladder submission should never outbid itself.
const BaseFeeDrops = 12

// DefaultLedgerBuffer is how many ledgers past the current one a
// descriptor stays valid, roughly five minutes.
const DefaultLedgerBuffer = 100

// Build error kinds. Everything here is recoverable by re-selecting a
// token or correcting the ladder; nothing is fatal.
var (
	ErrBadCurrency = errors.New("txbuild: bad currency")
	ErrBadAddress  = errors.New("txbuild: bad address")
	ErrBadOrder    = errors.New("txbuild: bad order")
)

// TokenAmount is the issued-currency side of an offer.
type TokenAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// Descriptor is one unsigned OfferCreate: the account sells
// Sell.Value of the token and asks for ReceiveDrops of XRP.
type Descriptor struct {
	Account            string
	Sell               TokenAmount
	ReceiveDrops       xrpamount.XRPAmount
	FeeDrops           xrpamount.XRPAmount
	Flags              uint32
	Sequence           *uint32
	LastLedgerSequence *uint32
}

// TxJSON renders the descriptor as the ledger's JSON transaction form,
// the body a wallet gateway expects in its signing payload.
func (d *Descriptor) TxJSON() map[string]any {
	tx := map[string]any{
		"TransactionType": "OfferCreate",
		"Account":         d.Account,
		"TakerGets": map[string]any{
			"currency": d.Sell.Currency,
			"issuer":   d.Sell.Issuer,
			"value":    d.Sell.Value,
		},
		"TakerPays": d.ReceiveDrops.String(),
		"Fee":       d.FeeDrops.String(),
		"Flags":     d.Flags,
	}
	if d.Sequence != nil {
		tx["Sequence"] = *d.Sequence
	}
	if d.LastLedgerSequence != nil {
		tx["LastLedgerSequence"] = *d.LastLedgerSequence
	}
	return tx
}

// SequenceSource supplies the account's next transaction sequence.
// Called once per build; descriptors are numbered consecutively from
// the returned base.
type SequenceSource interface {
	NextSequence(ctx context.Context, account string) (uint32, error)
}

// LedgerSource supplies the current validated ledger index, used to
// stamp descriptors with an expiration horizon.
type LedgerSource interface {
	CurrentLedger(ctx context.Context) (uint32, error)
}

// Builder turns ladders into descriptor sequences. Both sources are
// optional: without them descriptors carry no Sequence or
// LastLedgerSequence and the wallet fills them in at signing time.
type Builder struct {
	Sequences    SequenceSource
	Ledger       LedgerSource
	LedgerBuffer uint32
}

// Build produces one descriptor per order, in order. It fails fast on
// the first malformed input and never returns a partial sequence.
func (b *Builder) Build(ctx context.Context, orders []ladder.OrderSpec, account, currencyCode, issuerAddress string) ([]Descriptor, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders to build", ErrBadOrder)
	}
	if err := checkAddress("account", account); err != nil {
		return nil, err
	}
	if err := checkAddress("issuer", issuerAddress); err != nil {
		return nil, err
	}
	currency, err := NormalizeCurrencyCode(currencyCode)
	if err != nil {
		return nil, err
	}

	var baseSequence *uint32
	if b.Sequences != nil {
		seq, err := b.Sequences.NextSequence(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("txbuild: fetch sequence for %s: %w", account, err)
		}
		baseSequence = &seq
	}

	var lastLedger *uint32
	if b.Ledger != nil {
		current, err := b.Ledger.CurrentLedger(ctx)
		if err != nil {
			return nil, fmt.Errorf("txbuild: fetch current ledger: %w", err)
		}
		buffer := b.LedgerBuffer
		if buffer == 0 {
			buffer = DefaultLedgerBuffer
		}
		lls := current + buffer
		lastLedger = &lls
	}

	descriptors := make([]Descriptor, len(orders))
	for i, o := range orders {
		// The calculator guarantees positive rungs; re-check anyway
		// since descriptors may also be built from imported ladders.
		if o.Amount <= 0 || o.Price <= 0 {
			return nil, fmt.Errorf("%w: order %d has non-positive amount %g or price %g", ErrBadOrder, i+1, o.Amount, o.Price)
		}

		receive := xrpamount.FloorFromDecimalXRP(
			decimal.NewFromFloat(o.Amount).Mul(decimal.NewFromFloat(o.Price)))
		if !receive.IsPositive() {
			return nil, fmt.Errorf("%w: order %d asks for less than one drop of XRP", ErrBadOrder, i+1)
		}

		d := Descriptor{
			Account: account,
			Sell: TokenAmount{
				Currency: currency,
				Issuer:   issuerAddress,
				Value:    decimal.NewFromFloat(o.Amount).String(),
			},
			ReceiveDrops: receive,
			FeeDrops:     xrpamount.NewXRPAmount(BaseFeeDrops),
		}
		if baseSequence != nil {
			seq := *baseSequence + uint32(i)
			d.Sequence = &seq
		}
		d.LastLedgerSequence = lastLedger
		descriptors[i] = d
	}

	return descriptors, nil
}

// TotalFee returns the flat fee for submitting n descriptors.
func TotalFee(n int) xrpamount.XRPAmount {
	return xrpamount.NewXRPAmount(BaseFeeDrops).Mul(int64(n))
}

func checkAddress(field, address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty %s address", ErrBadAddress, field)
	}
	if _, _, err := addresscodec.DecodeClassicAddressToAccountID(address); err != nil {
		return fmt.Errorf("%w: %s address %q: %v", ErrBadAddress, field, address, err)
	}
	return nil
}
