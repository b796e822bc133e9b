package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	wallet *Wallet
	err    error
	calls  int
}

func (f *fakeAPI) GetWallet(_ context.Context, _ string) (*Wallet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.wallet.Clone(), nil
}

func testEntry() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestStore_RefreshTrimsTransactions(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(500)}
	for i := 0; i < 15; i++ {
		w.Transactions = append(w.Transactions, Transaction{ID: fmt.Sprintf("tx-%d", i), Status: TransactionStatusCompleted})
	}
	store := NewStore(&fakeAPI{wallet: w}, 10, testEntry())

	got, err := store.Refresh(context.Background(), "token")
	require.NoError(t, err)

	assert.Len(t, got.Transactions, 10)
	assert.Equal(t, "tx-0", got.Transactions[0].ID)
	assert.True(t, store.Balance().Equal(decimal.NewFromInt(500)))
}

func TestStore_RefreshErrorKeepsPreviousState(t *testing.T) {
	api := &fakeAPI{wallet: &Wallet{Balance: decimal.NewFromInt(200)}}
	store := NewStore(api, 10, testEntry())

	_, err := store.Refresh(context.Background(), "token")
	require.NoError(t, err)

	api.err = errors.New("boom")
	_, err = store.Refresh(context.Background(), "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch wallet")
	assert.True(t, store.Balance().Equal(decimal.NewFromInt(200)))
}

func TestStore_CurrentIsACopy(t *testing.T) {
	store := NewStore(&fakeAPI{wallet: &Wallet{Balance: decimal.NewFromInt(10)}}, 10, testEntry())
	assert.Nil(t, store.Current())
	assert.True(t, store.Balance().IsZero())

	_, err := store.Refresh(context.Background(), "token")
	require.NoError(t, err)

	current := store.Current()
	current.Balance = decimal.NewFromInt(1_000_000)
	assert.True(t, store.Balance().Equal(decimal.NewFromInt(10)))
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.True(t, TransactionStatusCompleted.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
}

func TestWallet_CanCover(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(500)}
	assert.False(t, w.CanCover(decimal.NewFromInt(1180)))
	assert.True(t, w.CanCover(decimal.NewFromInt(500)))
}
