package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/projection"
	"github.com/centbook/centbook/internal/services/ledger/storage"
	"github.com/centbook/centbook/internal/services/ledger/storage/bbolt"
	"github.com/centbook/centbook/internal/services/ledger/storage/sqlite"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"), event.NewRegistry(), projection.NewApplier())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	counter := 0
	defaults := []Option{
		WithClock(func() time.Time { return time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%04d", counter)
		}),
		WithLogger(slog.New(slog.DiscardHandler)),
	}

	svc, err := NewService(store, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func openAccount(t *testing.T, svc *Service, key, name string) AccountView {
	t.Helper()
	view, err := svc.OpenAccount(context.Background(), OpenAccountInput{
		UserID:         "user-1",
		IdempotencyKey: key,
		Name:           name,
		Currency:       "USD",
	})
	if err != nil {
		t.Fatalf("open account %s: %v", name, err)
	}
	return view
}

func TestOpenAccountIdempotency(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first := openAccount(t, svc, "open-key", "Checking")
	if first.AccountID == "" || first.Version != 0 {
		t.Fatalf("unexpected view: %+v", first)
	}

	replay := openAccount(t, svc, "open-key", "Checking")
	if replay.AccountID != first.AccountID {
		t.Fatalf("replay resolved to %s, expected %s", replay.AccountID, first.AccountID)
	}

	events, err := store.ListEvents(ctx, -1, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("replayed command must append nothing, journal has %d events", len(events))
	}
}

func TestIncomeAndExpenseFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acct := openAccount(t, svc, "", "Checking")

	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 1000, Description: "salary",
	}); err != nil {
		t.Fatalf("record income: %v", err)
	}
	if _, err := svc.RecordExpense(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 300, Description: "rent",
	}); err != nil {
		t.Fatalf("record expense: %v", err)
	}
	view, err := svc.RecordExpense(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 300, Description: "groceries",
	})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}

	if view.BalanceCents != 400 || view.Balance != "4.00" {
		t.Fatalf("expected balance 400 cents, got %+v", view)
	}
	if view.Version != 3 {
		t.Fatalf("expected version 3, got %d", view.Version)
	}

	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 0,
	}); !errors.Is(err, account.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: -5,
	}); !errors.Is(err, account.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}

	movements, err := svc.ListMovements(ctx, acct.AccountID, 0)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}
	// Newest first.
	if movements[0].Description != "groceries" || movements[0].AmountCents != -300 {
		t.Fatalf("unexpected newest movement: %+v", movements[0])
	}
	if movements[2].Kind != storage.MovementIncome || movements[2].Amount != "10.00" {
		t.Fatalf("unexpected oldest movement: %+v", movements[2])
	}
}

func TestMovementIdempotency(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	acct := openAccount(t, svc, "", "Checking")

	in := RecordMovementInput{
		UserID: "user-1", IdempotencyKey: "income-1",
		AccountID: acct.AccountID, AmountCents: 1000,
	}
	if _, err := svc.RecordIncome(ctx, in); err != nil {
		t.Fatalf("record income: %v", err)
	}
	replay, err := svc.RecordIncome(ctx, in)
	if err != nil {
		t.Fatalf("replay income: %v", err)
	}
	if replay.BalanceCents != 1000 {
		t.Fatalf("replay must not double-apply, balance %d", replay.BalanceCents)
	}

	events, err := store.ListEvents(ctx, -1, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 journal events, got %d", len(events))
	}
}

func TestTransfer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	source := openAccount(t, svc, "", "Source")
	destination := openAccount(t, svc, "", "Destination")
	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: source.AccountID, AmountCents: 1000,
	}); err != nil {
		t.Fatalf("fund source: %v", err)
	}

	in := TransferInput{
		UserID: "user-1", IdempotencyKey: "tr-key",
		SourceAccountID:      source.AccountID,
		DestinationAccountID: destination.AccountID,
		AmountCents:          400,
	}
	result, err := svc.Transfer(ctx, in)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Source.BalanceCents != 600 || result.Destination.BalanceCents != 400 {
		t.Fatalf("unexpected balances after transfer: %+v", result)
	}
	if result.TransferID == "" {
		t.Fatal("expected transfer id")
	}

	replay, err := svc.Transfer(ctx, in)
	if err != nil {
		t.Fatalf("replay transfer: %v", err)
	}
	if replay.TransferID != result.TransferID {
		t.Fatalf("replay transfer id %s, expected %s", replay.TransferID, result.TransferID)
	}
	if replay.Source.BalanceCents != 600 || replay.Destination.BalanceCents != 400 {
		t.Fatalf("replay must not move money again: %+v", replay)
	}

	movements, err := svc.ListMovements(ctx, destination.AccountID, 0)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 || movements[0].Kind != storage.MovementTransferIn {
		t.Fatalf("unexpected destination movements: %+v", movements)
	}
	if movements[0].TransferID != result.TransferID {
		t.Fatalf("movement transfer id %s, expected %s", movements[0].TransferID, result.TransferID)
	}
}

func TestTransferValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	source := openAccount(t, svc, "", "Source")

	_, err := svc.Transfer(ctx, TransferInput{
		UserID:               "user-1",
		SourceAccountID:      source.AccountID,
		DestinationAccountID: source.AccountID,
		AmountCents:          100,
	})
	if !errors.Is(err, apperrors.New(apperrors.CodeTransferSameAccount, "")) {
		t.Fatalf("expected same-account error, got %v", err)
	}

	euro, err := svc.OpenAccount(ctx, OpenAccountInput{
		UserID: "user-1", Name: "Euro", Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("open euro account: %v", err)
	}
	_, err = svc.Transfer(ctx, TransferInput{
		UserID:               "user-1",
		SourceAccountID:      source.AccountID,
		DestinationAccountID: euro.AccountID,
		AmountCents:          100,
	})
	if !errors.Is(err, account.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}

	_, err = svc.Transfer(ctx, TransferInput{
		UserID:               "user-1",
		SourceAccountID:      source.AccountID,
		DestinationAccountID: mustOpenSecond(t, svc).AccountID,
		AmountCents:          100,
	})
	if !errors.Is(err, account.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func mustOpenSecond(t *testing.T, svc *Service) AccountView {
	t.Helper()
	return openAccount(t, svc, "", "Second")
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache, err := bbolt.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	svc, _ := newTestService(t, WithSnapshotCache(cache))
	ctx := context.Background()

	acct := openAccount(t, svc, "", "Checking")
	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 1000,
	}); err != nil {
		t.Fatalf("record income: %v", err)
	}

	snap, found, err := cache.GetSnapshot(acct.AccountID)
	if err != nil || !found {
		t.Fatalf("expected snapshot after command, found=%v err=%v", found, err)
	}
	if snap.State.BalanceCents != 1000 || snap.State.Version != 1 {
		t.Fatalf("unexpected snapshot state: %+v", snap.State)
	}

	// The next command loads from the snapshot and still sees the same state.
	view, err := svc.RecordExpense(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 300,
	})
	if err != nil {
		t.Fatalf("record expense via snapshot: %v", err)
	}
	if view.BalanceCents != 700 || view.Version != 2 {
		t.Fatalf("unexpected view after snapshot load: %+v", view)
	}
}

func TestRebuildProjectionsThroughService(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	acct := openAccount(t, svc, "", "Checking")
	if _, err := svc.RecordIncome(ctx, RecordMovementInput{
		UserID: "user-1", AccountID: acct.AccountID, AmountCents: 1000,
	}); err != nil {
		t.Fatalf("record income: %v", err)
	}

	applied, err := svc.RebuildProjections(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 events applied, got %d", applied)
	}
	if err := store.VerifyProjections(ctx); err != nil {
		t.Fatalf("verify after rebuild: %v", err)
	}

	view, err := svc.GetAccount(ctx, acct.AccountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if view.BalanceCents != 1000 {
		t.Fatalf("expected balance 1000 after rebuild, got %d", view.BalanceCents)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetAccount(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordMovementUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordIncome(context.Background(), RecordMovementInput{
		UserID: "user-1", AccountID: "missing", AmountCents: 100,
	})
	if !errors.Is(err, account.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}
