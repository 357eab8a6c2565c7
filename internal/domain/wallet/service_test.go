package wallet_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lumenai/companion-api/internal/domain/wallet"
)

func TestGetBalanceGrantsOnceUnderConcurrentFirstAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const readers = 20
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			balance, err := f.svc.GetBalance(ctx, "u1")
			if err != nil {
				t.Errorf("get balance failed: %v", err)
				return
			}
			if balance != 100 {
				t.Errorf("expected 100, got %d", balance)
			}
		}()
	}
	wg.Wait()

	txs := f.ledger.all()
	if len(txs) != 1 {
		t.Fatalf("expected exactly one grant entry, got %d", len(txs))
	}
	if txs[0].Type != wallet.TransactionTypeReward || txs[0].ItemType != wallet.ItemNewUserGift || txs[0].Amount != 100 {
		t.Fatalf("unexpected grant entry: %+v", txs[0])
	}
}

func TestConsumeRaceNeverOverdraws(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.balances.set("u1", 10)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Consume(ctx, "u1", 8, wallet.ItemAIImage, fmt.Sprintf("img-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, wallet.ErrInsufficientFunds):
			rejected++
			var insufficient *wallet.InsufficientFundsError
			if !errors.As(err, &insufficient) {
				t.Fatalf("expected *InsufficientFundsError, got %T", err)
			}
			if insufficient.Balance != 2 || insufficient.Required != 8 || insufficient.Shortfall() != 6 {
				t.Fatalf("unexpected detail: %+v", insufficient)
			}
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", ok, rejected)
	}

	balance, _ := f.svc.GetBalance(ctx, "u1")
	if balance != 2 {
		t.Fatalf("expected balance 2, got %d", balance)
	}
	if got := len(f.ledger.all()); got != 1 {
		t.Fatalf("expected one consume entry, got %d", got)
	}
}

func TestConsumeNonPositiveIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.balances.set("u1", 100)

	for _, amount := range []int64{0, -5} {
		balance, err := f.svc.Consume(ctx, "u1", amount, wallet.ItemAIMessage, "")
		if err != nil {
			t.Fatalf("consume %d: %v", amount, err)
		}
		if balance != 100 {
			t.Fatalf("consume %d: expected 100, got %d", amount, balance)
		}
	}

	if got := len(f.ledger.all()); got != 0 {
		t.Fatalf("no-op consume wrote %d ledger entries", got)
	}
}

func TestNonPositiveDebitDoesNotCreateWallet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if b, err := f.svc.Consume(ctx, "ghost", 0, wallet.ItemAIMessage, ""); err != nil || b != 0 {
		t.Fatalf("consume 0: balance %d, err %v", b, err)
	}
	if b, err := f.svc.Spend(ctx, "ghost", -3, "gift:rose"); err != nil || b != 0 {
		t.Fatalf("spend -3: balance %d, err %v", b, err)
	}

	if _, err := f.balances.Get(ctx, "ghost"); !errors.Is(err, wallet.ErrBalanceNotFound) {
		t.Fatalf("no-op debit created a wallet: %v", err)
	}
	if txs := f.ledger.all(); len(txs) != 0 {
		t.Fatalf("no-op debit wrote ledger entries: %+v", txs)
	}
}

func TestConsumeCreatesMissingWalletBeforeDebit(t *testing.T) {
	f := newFixture()

	balance, err := f.svc.Consume(context.Background(), "new-user", 1, wallet.ItemAIMessage, "m1")
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if balance != 99 {
		t.Fatalf("expected 99, got %d", balance)
	}

	txs := f.ledger.all()
	if len(txs) != 2 || txs[0].ItemType != wallet.ItemNewUserGift || txs[1].Amount != -1 {
		t.Fatalf("expected grant then consume, got %+v", txs)
	}
}

func TestConsumeRequiresItemType(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Consume(context.Background(), "u1", 1, " ", ""); !errors.Is(err, wallet.ErrMissingItemType) {
		t.Fatalf("expected ErrMissingItemType, got %v", err)
	}
}

func TestSpendUsesDescriptionAsItemType(t *testing.T) {
	f := newFixture()

	balance, err := f.svc.Spend(context.Background(), "u1", 30, "gift:rose")
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if balance != 70 {
		t.Fatalf("expected 70, got %d", balance)
	}

	txs := f.ledger.all()
	last := txs[len(txs)-1]
	if last.ItemType != "gift:rose" || last.Type != wallet.TransactionTypeConsume || last.Amount != -30 {
		t.Fatalf("unexpected spend entry: %+v", last)
	}

	if _, err := f.svc.Spend(context.Background(), "u1", 500, "gift:castle"); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestRewardScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if b, _ := f.svc.GetBalance(ctx, "u1"); b != 100 {
		t.Fatalf("expected initial 100, got %d", b)
	}
	if b, err := f.svc.Consume(ctx, "u1", 1, wallet.ItemAIMessage, "m1"); err != nil || b != 99 {
		t.Fatalf("expected 99, got %d (%v)", b, err)
	}
	if b, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T", "T"); err != nil || b != 149 {
		t.Fatalf("expected 149, got %d (%v)", b, err)
	}
	if _, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T", "T"); !errors.Is(err, wallet.ErrDuplicateReward) {
		t.Fatalf("expected ErrDuplicateReward, got %v", err)
	}
	if b, _ := f.svc.GetBalance(ctx, "u1"); b != 149 {
		t.Fatalf("expected balance to stay 149, got %d", b)
	}
}

func TestRewardConcurrentSameTraceCreditsOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const callbacks = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	credited, duplicates := 0, 0
	for i := 0; i < callbacks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "imp-1", "imp-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				credited++
			case errors.Is(err, wallet.ErrDuplicateReward):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if credited != 1 || duplicates != callbacks-1 {
		t.Fatalf("expected 1 credit and %d duplicates, got %d/%d", callbacks-1, credited, duplicates)
	}
	if b, _ := f.svc.GetBalance(ctx, "u1"); b != 150 {
		t.Fatalf("expected 150, got %d", b)
	}
}

func TestRewardWithoutTraceIsNotDeduplicated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Reward(ctx, "u1", 10, wallet.ItemOutfitRefund, "outfit-1", ""); err != nil {
			t.Fatalf("reward %d failed: %v", i, err)
		}
	}
	if b, _ := f.svc.GetBalance(ctx, "u1"); b != 120 {
		t.Fatalf("expected 120, got %d", b)
	}
}

func TestRewardRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Reward(ctx, "u1", 0, wallet.ItemAdReward, "", "t0"); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.Reward(ctx, "u1", 5, "", "", "t1"); !errors.Is(err, wallet.ErrMissingItemType) {
		t.Fatalf("expected ErrMissingItemType, got %v", err)
	}
	if f.traces.has("t0") || f.traces.has("t1") {
		t.Fatal("invalid reward must not claim its trace")
	}
}

func TestRewardKeepsClaimWhenCreditErrorsAfterApplying(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.balances.set("u1", 100)

	lostAck := fmt.Errorf("%w: credit balance: connection reset", wallet.ErrStorageUnavailable)
	f.balances.failCreditAfterApply(lostAck)

	if _, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T1", "T1"); !errors.Is(err, wallet.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if !f.traces.has("T1") {
		t.Fatal("claim must survive a credit error")
	}

	f.balances.failCredit(nil)
	if _, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T1", "T1"); !errors.Is(err, wallet.ErrDuplicateReward) {
		t.Fatalf("retry after an ambiguous credit must be rejected, got %v", err)
	}
	if b, _ := f.balances.Get(ctx, "u1"); b != 150 {
		t.Fatalf("expected balance 150, got %d", b)
	}
}

func TestRewardReleasesClaimWhenWalletCreationFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.balances.failCreate(fmt.Errorf("%w: create balance: connection refused", wallet.ErrStorageUnavailable))
	if _, err := f.svc.Reward(ctx, "new-user", 50, wallet.ItemAdReward, "T2", "T2"); !errors.Is(err, wallet.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if f.traces.has("T2") {
		t.Fatal("claim must be released when nothing was credited")
	}

	f.balances.failCreate(nil)
	if b, err := f.svc.Reward(ctx, "new-user", 50, wallet.ItemAdReward, "T2", "T2"); err != nil || b != 150 {
		t.Fatalf("retry should credit: balance %d, err %v", b, err)
	}
}

func TestRewardClaimsAndCreditsTogether(t *testing.T) {
	f, traces := newTxFixture()
	ctx := context.Background()

	balance, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T1", "T1")
	if err != nil || balance != 150 {
		t.Fatalf("first reward: balance %d, err %v", balance, err)
	}

	txs := f.ledger.all()
	if len(txs) != 2 || txs[0].ItemType != wallet.ItemNewUserGift || txs[0].AfterBalance != 100 || txs[1].AfterBalance != 150 {
		t.Fatalf("expected grant then reward entries, got %+v", txs)
	}

	traces.commitErr = fmt.Errorf("%w: commit reward: connection reset", wallet.ErrStorageUnavailable)
	if _, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, "T2", "T2"); !errors.Is(err, wallet.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	traces.commitErr = nil

	for _, id := range []string{"T1", "T2"} {
		if _, err := f.svc.Reward(ctx, "u1", 50, wallet.ItemAdReward, id, id); !errors.Is(err, wallet.ErrDuplicateReward) {
			t.Fatalf("replay of %s: expected ErrDuplicateReward, got %v", id, err)
		}
	}
	if b, _ := f.balances.Get(ctx, "u1"); b != 200 {
		t.Fatalf("each trace must credit at most once, got balance %d", b)
	}
}

func TestAdminRechargeIsLoggedAsRecharge(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Reward(context.Background(), "u1", 500, wallet.ItemAdminRecharge, "ticket-9", ""); err != nil {
		t.Fatalf("recharge failed: %v", err)
	}

	txs := f.ledger.all()
	last := txs[len(txs)-1]
	if last.Type != wallet.TransactionTypeRecharge || last.Amount != 500 || last.AfterBalance != 600 {
		t.Fatalf("unexpected recharge entry: %+v", last)
	}
	if last.RefID == nil || *last.RefID != "ticket-9" {
		t.Fatalf("expected ref id ticket-9, got %v", last.RefID)
	}
}

func TestBalanceEqualsLedgerSum(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				_, _ = f.svc.Consume(ctx, "u1", 7, wallet.ItemAIImage, "")
			case 1:
				_, _ = f.svc.Reward(ctx, "u1", 5, wallet.ItemAdReward, "", fmt.Sprintf("trace-%d", i%8))
			case 2:
				_, _ = f.svc.Spend(ctx, "u1", 3, "gift:rose")
			default:
				_, _ = f.svc.GetBalance(ctx, "u1")
			}
		}(i)
	}
	wg.Wait()

	rec, err := f.svc.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if rec.Balance < 0 {
		t.Fatalf("balance went negative: %d", rec.Balance)
	}
	if rec.Drift != 0 {
		t.Fatalf("balance %d does not match ledger sum %d", rec.Balance, rec.LedgerSum)
	}

	for _, tx := range f.ledger.all() {
		if tx.AfterBalance != tx.BeforeBalance+tx.Amount {
			t.Fatalf("entry breaks after = before + amount: %+v", tx)
		}
		if tx.AfterBalance < 0 {
			t.Fatalf("entry shows negative balance: %+v", tx)
		}
	}
}

func TestReconcileReportsMissingWalletAsEmpty(t *testing.T) {
	f := newFixture()

	rec, err := f.svc.Reconcile(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if rec.Balance != 0 || rec.LedgerSum != 0 || rec.Drift != 0 {
		t.Fatalf("unexpected reconciliation: %+v", rec)
	}
	if len(f.ledger.all()) != 0 {
		t.Fatal("reconcile must not create a wallet")
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _ = f.svc.Consume(ctx, "u1", 1, wallet.ItemAIMessage, "m1")
	_, _ = f.svc.Consume(ctx, "u1", 5, wallet.ItemAIVoice, "v1")

	txs, err := f.svc.ListTransactions(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(txs))
	}
	if txs[0].CreatedAt.Before(txs[1].CreatedAt) {
		t.Fatal("expected newest first")
	}
}
