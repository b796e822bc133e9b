package payment

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

func testEntry() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// fakeGateway answers transaction lookups from a script of statuses; the
// last status repeats once the script runs out.
type fakeGateway struct {
	mu sync.Mutex

	walletErr   error
	walletGate  chan struct{}
	walletCalls int

	pushID    string
	pushErr   error
	pushCalls int

	statuses []wallet.TransactionStatus
	txErrs   []error
	txCalls  int
}

func (f *fakeGateway) PayWithWallet(ctx context.Context, _ string, _ string) error {
	f.mu.Lock()
	f.walletCalls++
	gate := f.walletGate
	err := f.walletErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeGateway) InitiateSTKPush(_ context.Context, _ string, _ string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	if f.pushErr != nil {
		return "", f.pushErr
	}
	return f.pushID, nil
}

func (f *fakeGateway) GetTransaction(_ context.Context, _ string, id string) (*wallet.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.txCalls
	f.txCalls++

	if n < len(f.txErrs) && f.txErrs[n] != nil {
		return nil, f.txErrs[n]
	}
	status := wallet.TransactionStatusPending
	if len(f.statuses) > 0 {
		if n < len(f.statuses) {
			status = f.statuses[n]
		} else {
			status = f.statuses[len(f.statuses)-1]
		}
	}
	return &wallet.Transaction{ID: id, Status: status}, nil
}

func (f *fakeGateway) calls() (walletCalls, pushCalls, txCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.walletCalls, f.pushCalls, f.txCalls
}


type memoryJournal struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (j *memoryJournal) Record(_ context.Context, a *Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, *a)
	return nil
}

func (j *memoryJournal) statuses() []Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Status, 0, len(j.attempts))
	for _, a := range j.attempts {
		out = append(out, a.Status)
	}
	return out
}
