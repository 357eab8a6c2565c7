package wallet_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumenai/companion-api/internal/domain/wallet"
)

// memBalances serialises every call, which is what the single-statement
// PostgreSQL operations guarantee per row.
type memBalances struct {
	mu        sync.Mutex
	balances  map[string]int64
	creditErr error
	// lostAck applies the credit before returning creditErr, like a commit
	// whose acknowledgement never reached the caller.
	lostAck   bool
	createErr error
}

func newMemBalances() *memBalances {
	return &memBalances{balances: make(map[string]int64)}
}

func (m *memBalances) Get(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return 0, wallet.ErrBalanceNotFound
	}
	return b, nil
}

func (m *memBalances) CreateIfMissing(_ context.Context, userID string, grant int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok {
		return b, false, nil
	}
	if m.createErr != nil {
		return 0, false, m.createErr
	}
	m.balances[userID] = grant
	return grant, true, nil
}

func (m *memBalances) Debit(_ context.Context, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return 0, wallet.ErrBalanceNotFound
	}
	if b < amount {
		return 0, &wallet.InsufficientFundsError{Balance: b, Required: amount}
	}
	m.balances[userID] = b - amount
	return b - amount, nil
}

func (m *memBalances) Credit(_ context.Context, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creditErr != nil {
		if m.lostAck {
			m.balances[userID] += amount
		}
		return 0, m.creditErr
	}
	m.balances[userID] += amount
	return m.balances[userID], nil
}

func (m *memBalances) set(userID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
}

func (m *memBalances) failCredit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creditErr = err
	m.lostAck = false
}

func (m *memBalances) failCreditAfterApply(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creditErr = err
	m.lostAck = true
}

func (m *memBalances) failCreate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// memLedger records synchronously and serves History.
type memLedger struct {
	mu  sync.Mutex
	txs []wallet.Transaction
}

func (l *memLedger) Record(tx wallet.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append(l.txs, tx)
}

func (l *memLedger) Append(_ context.Context, tx wallet.Transaction) error {
	l.Record(tx)
	return nil
}

func (l *memLedger) ListByUser(_ context.Context, userID string, limit, offset int) ([]wallet.Transaction, error) {
	out := l.byUser(userID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []wallet.Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (l *memLedger) SumByUser(_ context.Context, userID string) (int64, error) {
	var sum int64
	for _, tx := range l.byUser(userID) {
		sum += tx.Amount
	}
	return sum, nil
}

func (l *memLedger) byUser(userID string) []wallet.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]wallet.Transaction, 0)
	for _, tx := range l.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

func (l *memLedger) all() []wallet.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]wallet.Transaction(nil), l.txs...)
}

type memTraces struct {
	mu     sync.Mutex
	traces map[string]wallet.Trace
}

func newMemTraces() *memTraces {
	return &memTraces{traces: make(map[string]wallet.Trace)}
}

func (m *memTraces) Claim(_ context.Context, trace wallet.Trace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.traces[trace.TraceID]; ok {
		return wallet.ErrDuplicateReward
	}
	m.traces[trace.TraceID] = trace
	return nil
}

func (m *memTraces) Release(_ context.Context, traceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.traces, traceID)
	return nil
}

func (m *memTraces) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, tr := range m.traces {
		if tr.CreatedAt.Before(before) {
			delete(m.traces, id)
			n++
		}
	}
	return n, nil
}

func (m *memTraces) has(traceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.traces[traceID]
	return ok
}

type fixture struct {
	svc      *wallet.Service
	balances *memBalances
	ledger   *memLedger
	traces   *memTraces
}

func newFixture() *fixture {
	f := &fixture{
		balances: newMemBalances(),
		ledger:   &memLedger{},
		traces:   newMemTraces(),
	}
	f.svc = wallet.NewService(wallet.Deps{
		Balances: f.balances,
		Ledger:   f.ledger,
		History:  f.ledger,
		Traces:   f.traces,
	}, wallet.Options{InitialGrant: wallet.DefaultInitialGrant})
	return f
}

// memTxTraces claims and credits under one lock, the way the PostgreSQL
// store does in one transaction. commitErr is returned after both applied.
type memTxTraces struct {
	*memTraces
	balances  *memBalances
	commitErr error
}

func (m *memTxTraces) ClaimAndCredit(_ context.Context, trace wallet.Trace, grant int64) (wallet.RewardCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.traces[trace.TraceID]; ok {
		return wallet.RewardCredit{}, wallet.ErrDuplicateReward
	}
	m.traces[trace.TraceID] = trace

	m.balances.mu.Lock()
	defer m.balances.mu.Unlock()
	var res wallet.RewardCredit
	if _, ok := m.balances.balances[trace.UserID]; !ok {
		m.balances.balances[trace.UserID] = grant
		res.WalletCreated = true
	}
	m.balances.balances[trace.UserID] += trace.Amount
	res.Balance = m.balances.balances[trace.UserID]

	if m.commitErr != nil {
		return wallet.RewardCredit{}, m.commitErr
	}
	return res, nil
}

func newTxFixture() (*fixture, *memTxTraces) {
	f := newFixture()
	traces := &memTxTraces{memTraces: f.traces, balances: f.balances}
	f.svc = wallet.NewService(wallet.Deps{
		Balances: f.balances,
		Ledger:   f.ledger,
		History:  f.ledger,
		Traces:   traces,
	}, wallet.Options{InitialGrant: wallet.DefaultInitialGrant})
	return f, traces
}
