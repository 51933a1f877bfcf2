package txbuild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrpl-ladder/internal/core/ladder"
)

const (
	testAccount = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	testIssuer  = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"
)

type stubSequences struct {
	base    uint32
	calls   int
	account string
}

func (s *stubSequences) NextSequence(_ context.Context, account string) (uint32, error) {
	s.calls++
	s.account = account
	return s.base, nil
}

type stubLedger struct {
	current uint32
}

func (s *stubLedger) CurrentLedger(_ context.Context) (uint32, error) {
	return s.current, nil
}

func testOrders() []ladder.OrderSpec {
	return []ladder.OrderSpec{
		{Index: 1, Price: 0.01, Amount: 100000, MarketCap: 100000},
		{Index: 2, Price: 0.055, Amount: 100000, MarketCap: 550000},
		{Index: 3, Price: 0.1, Amount: 100000, MarketCap: 1000000},
	}
}

func TestBuildDescriptors(t *testing.T) {
	seqs := &stubSequences{base: 42}
	b := &Builder{
		Sequences: seqs,
		Ledger:    &stubLedger{current: 5000},
	}

	descriptors, err := b.Build(context.Background(), testOrders(), testAccount, "DOG", testIssuer)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	assert.Equal(t, 1, seqs.calls, "one sequence fetch per build")
	assert.Equal(t, testAccount, seqs.account)

	for i, d := range descriptors {
		assert.Equal(t, testAccount, d.Account)
		assert.Equal(t, "DOG", d.Sell.Currency)
		assert.Equal(t, testIssuer, d.Sell.Issuer)
		assert.Equal(t, "100000", d.Sell.Value)
		assert.EqualValues(t, BaseFeeDrops, d.FeeDrops.Drops())
		require.NotNil(t, d.Sequence)
		assert.Equal(t, uint32(42+i), *d.Sequence)
		require.NotNil(t, d.LastLedgerSequence)
		assert.Equal(t, uint32(5100), *d.LastLedgerSequence)
	}

	// 100000 tokens at 0.01 XRP is 1000 XRP.
	assert.EqualValues(t, 1_000_000_000, descriptors[0].ReceiveDrops.Drops())
	assert.EqualValues(t, 5_500_000_000, descriptors[1].ReceiveDrops.Drops())
	assert.EqualValues(t, 10_000_000_000, descriptors[2].ReceiveDrops.Drops())
}

func TestBuildWithoutSources(t *testing.T) {
	b := &Builder{}

	descriptors, err := b.Build(context.Background(), testOrders(), testAccount, "DOG", testIssuer)
	require.NoError(t, err)

	for _, d := range descriptors {
		assert.Nil(t, d.Sequence)
		assert.Nil(t, d.LastLedgerSequence)
	}
}

func TestBuildFloorsFractionalDrops(t *testing.T) {
	b := &Builder{}
	orders := []ladder.OrderSpec{{Index: 1, Price: 0.0000015, Amount: 1}}

	descriptors, err := b.Build(context.Background(), orders, testAccount, "DOG", testIssuer)
	require.NoError(t, err)

	// 1.5 drops floors to 1, never rounds up.
	assert.EqualValues(t, 1, descriptors[0].ReceiveDrops.Drops())
}

func TestBuildRejectsSubDropReceive(t *testing.T) {
	b := &Builder{}
	orders := []ladder.OrderSpec{{Index: 1, Price: 0.0000001, Amount: 3}}

	_, err := b.Build(context.Background(), orders, testAccount, "DOG", testIssuer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadOrder)
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		orders  []ladder.OrderSpec
		account string
		code    string
		issuer  string
		wantErr error
	}{
		{
			name:    "no orders",
			orders:  nil,
			account: testAccount,
			code:    "DOG",
			issuer:  testIssuer,
			wantErr: ErrBadOrder,
		},
		{
			name:    "bad account checksum",
			orders:  testOrders(),
			account: "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTa",
			code:    "DOG",
			issuer:  testIssuer,
			wantErr: ErrBadAddress,
		},
		{
			name:    "empty issuer",
			orders:  testOrders(),
			account: testAccount,
			code:    "DOG",
			issuer:  "",
			wantErr: ErrBadAddress,
		},
		{
			name:    "empty currency",
			orders:  testOrders(),
			account: testAccount,
			code:    "",
			issuer:  testIssuer,
			wantErr: ErrBadCurrency,
		},
		{
			name:    "negative amount",
			orders:  []ladder.OrderSpec{{Index: 1, Price: 0.01, Amount: -5}},
			account: testAccount,
			code:    "DOG",
			issuer:  testIssuer,
			wantErr: ErrBadOrder,
		},
	}

	b := &Builder{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(context.Background(), tt.orders, tt.account, tt.code, tt.issuer)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDescriptorTxJSON(t *testing.T) {
	seq := uint32(7)
	lls := uint32(900)
	d := Descriptor{
		Account: testAccount,
		Sell: TokenAmount{
			Currency: "DOG",
			Issuer:   testIssuer,
			Value:    "100000",
		},
		ReceiveDrops:       1_000_000_000,
		FeeDrops:           BaseFeeDrops,
		Sequence:           &seq,
		LastLedgerSequence: &lls,
	}

	tx := d.TxJSON()
	assert.Equal(t, "OfferCreate", tx["TransactionType"])
	assert.Equal(t, testAccount, tx["Account"])
	assert.Equal(t, "1000000000", tx["TakerPays"])
	assert.Equal(t, "12", tx["Fee"])
	assert.Equal(t, uint32(0), tx["Flags"])
	assert.Equal(t, uint32(7), tx["Sequence"])
	assert.Equal(t, uint32(900), tx["LastLedgerSequence"])

	gets, ok := tx["TakerGets"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "DOG", gets["currency"])
	assert.Equal(t, testIssuer, gets["issuer"])
	assert.Equal(t, "100000", gets["value"])
}

func TestTotalFee(t *testing.T) {
	assert.EqualValues(t, 60, TotalFee(5).Drops())
}
