package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	defaultLedgerBuffer = 1024
	appendTimeout       = 5 * time.Second
)

// TransactionLog is the append-only audit trail. There is no update or
// delete; corrections are compensating entries.
type TransactionLog interface {
	Append(ctx context.Context, tx Transaction) error
}

// History is the read side of the ledger.
type History interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
}

// Recorder accepts ledger entries off the critical path.
type Recorder interface {
	Record(tx Transaction)
}

// TransactionRepository implements TransactionLog and History on PostgreSQL.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, tx Transaction) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO wallet_transactions (
			id, user_id, type, amount, before_balance, after_balance, item_type, ref_id, created_at
		)
		VALUES (
			:id, :user_id, :type, :amount, :before_balance, :after_balance, :item_type, :ref_id, :created_at
		)
	`, tx)
	if err != nil {
		return storageErr("append transaction", err)
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, user_id, type, amount, before_balance, after_balance, item_type, ref_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int64
	err := r.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, storageErr("sum transactions", err)
	}
	return sum, nil
}

// LedgerWriter appends entries from a single goroutine so the balance
// mutation never waits on the ledger. A full queue drops the entry; a failed
// append is logged and counted. Neither is retried or reported to the caller.
type LedgerWriter struct {
	log      TransactionLog
	queue    chan Transaction
	onAppend func(ctx context.Context, tx Transaction)
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// LedgerOption configures a LedgerWriter.
type LedgerOption func(*LedgerWriter)

// WithAfterAppend runs fn for every entry once its append was attempted.
func WithAfterAppend(fn func(ctx context.Context, tx Transaction)) LedgerOption {
	return func(w *LedgerWriter) { w.onAppend = fn }
}

// NewLedgerWriter starts the writer goroutine. Stop it with Close.
func NewLedgerWriter(txLog TransactionLog, buffer int, opts ...LedgerOption) *LedgerWriter {
	if buffer <= 0 {
		buffer = defaultLedgerBuffer
	}
	w := &LedgerWriter{
		log:   txLog,
		queue: make(chan Transaction, buffer),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Record enqueues tx without blocking.
func (w *LedgerWriter) Record(tx Transaction) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.drop(tx, "ledger writer closed")
		return
	}

	select {
	case w.queue <- tx:
	default:
		w.drop(tx, "ledger queue full")
	}
}

func (w *LedgerWriter) drop(tx Transaction, reason string) {
	ledgerDroppedTotal.Inc()
	log.Warn().
		Str("user_id", tx.UserID).
		Str("tx_id", tx.ID.String()).
		Int64("amount", tx.Amount).
		Int64("after_balance", tx.AfterBalance).
		Str("item_type", tx.ItemType).
		Msg(reason + ", dropping ledger entry")
}

func (w *LedgerWriter) run() {
	defer close(w.done)

	for tx := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := w.log.Append(ctx, tx); err != nil {
			ledgerAppendFailuresTotal.Inc()
			log.Warn().Err(err).
				Str("user_id", tx.UserID).
				Str("tx_id", tx.ID.String()).
				Int64("amount", tx.Amount).
				Int64("after_balance", tx.AfterBalance).
				Msg("Failed to append ledger entry")
		}
		if w.onAppend != nil {
			w.onAppend(ctx, tx)
		}
		cancel()
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to end.
func (w *LedgerWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
