package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
	"github.com/centbook/centbook/internal/platform/errors/i18n"
	"github.com/centbook/centbook/internal/services/ledger/app"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/money"
	"github.com/centbook/centbook/internal/services/ledger/projection"
	"github.com/centbook/centbook/internal/services/ledger/storage/bbolt"
	"github.com/centbook/centbook/internal/services/ledger/storage/sqlite"
	"github.com/centbook/centbook/pkg/metrics"
)

// Run executes one CLI subcommand against the configured ledger database.
func Run(ctx context.Context, cfg Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: ledger [flags] <migrate|rebuild|verify|seed|accounts|movements>")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := sqlite.Open(cfg.DBPath, event.NewRegistry(), projection.NewApplier())
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []app.Option{app.WithLogger(logger)}
	if cfg.SnapshotPath != "" {
		cache, err := bbolt.Open(cfg.SnapshotPath)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, app.WithSnapshotCache(cache))
	}
	if cfg.MetricsAddr != "" {
		collector := metrics.NewCollector(logger)
		server := collector.StartServer(cfg.MetricsAddr)
		defer server.Close()
		opts = append(opts, app.WithMetrics(collector))
	}

	svc, err := app.NewService(store, opts...)
	if err != nil {
		return err
	}

	return describeError(dispatch(ctx, cfg, store, svc, args), cfg.Locale)
}

func dispatch(ctx context.Context, cfg Config, store *sqlite.Store, svc *app.Service, args []string) error {
	switch args[0] {
	case "migrate":
		// Opening the store applies pending migrations.
		fmt.Println("migrations applied")
		return nil
	case "rebuild":
		applied, err := svc.RebuildProjections(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("projections rebuilt from %d events\n", applied)
		return nil
	case "verify":
		if err := store.VerifyProjections(ctx); err != nil {
			return fmt.Errorf("projection verification failed: %w", err)
		}
		watermark, err := svc.ProjectionWatermark(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("projections verified, watermark %d\n", watermark)
		return nil
	case "seed":
		return seed(ctx, svc, cfg.UserID)
	case "accounts":
		return listAccounts(ctx, svc, cfg.UserID)
	case "movements":
		if len(args) < 2 {
			return fmt.Errorf("usage: ledger movements <account-id>")
		}
		return listMovements(ctx, svc, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// describeError prefixes domain failures with the localized user message so
// operators see both the friendly text and the underlying cause.
func describeError(err error, locale string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return fmt.Errorf("%s: %w", i18n.Format(locale, string(appErr.Code), appErr.Metadata), err)
	}
	return err
}

// seed opens two demo accounts and runs a few movements and a transfer so a
// fresh database has something to look at.
func seed(ctx context.Context, svc *app.Service, userID string) error {
	checking, err := svc.OpenAccount(ctx, app.OpenAccountInput{
		UserID: userID, IdempotencyKey: "seed-open-checking",
		Name: "Checking", Currency: "USD",
	})
	if err != nil {
		return err
	}
	savings, err := svc.OpenAccount(ctx, app.OpenAccountInput{
		UserID: userID, IdempotencyKey: "seed-open-savings",
		Name: "Savings", Currency: "USD",
	})
	if err != nil {
		return err
	}

	salary, err := money.ParseAmount("2500.00")
	if err != nil {
		return err
	}
	rent, err := money.ParseAmount("900.00")
	if err != nil {
		return err
	}
	stash, err := money.ParseAmount("400.00")
	if err != nil {
		return err
	}

	if _, err := svc.RecordIncome(ctx, app.RecordMovementInput{
		UserID: userID, IdempotencyKey: "seed-salary",
		AccountID: checking.AccountID, AmountCents: salary, Description: "salary",
	}); err != nil {
		return err
	}
	if _, err := svc.RecordExpense(ctx, app.RecordMovementInput{
		UserID: userID, IdempotencyKey: "seed-rent",
		AccountID: checking.AccountID, AmountCents: rent, Description: "rent",
	}); err != nil {
		return err
	}
	result, err := svc.Transfer(ctx, app.TransferInput{
		UserID: userID, IdempotencyKey: "seed-stash",
		SourceAccountID:      checking.AccountID,
		DestinationAccountID: savings.AccountID,
		AmountCents:          stash, Description: "monthly savings",
	})
	if err != nil {
		return err
	}

	fmt.Printf("seeded accounts %s (%s) and %s (%s), transfer %s\n",
		checking.AccountID, result.Source.Balance,
		savings.AccountID, result.Destination.Balance,
		result.TransferID)
	return nil
}

func listAccounts(ctx context.Context, svc *app.Service, userID string) error {
	accounts, err := svc.ListAccounts(ctx, userID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("no accounts")
		return nil
	}
	for _, acct := range accounts {
		status := ""
		if acct.Archived {
			status = " (archived)"
		}
		fmt.Printf("%s  %-20s %s %10s%s\n", acct.AccountID, acct.Name, acct.Currency, acct.Balance, status)
	}
	return nil
}

func listMovements(ctx context.Context, svc *app.Service, accountID string) error {
	movements, err := svc.ListMovements(ctx, accountID, 0)
	if err != nil {
		return err
	}
	if len(movements) == 0 {
		fmt.Println("no movements")
		return nil
	}
	for _, m := range movements {
		fmt.Printf("%s  %-12s %10s  %s\n",
			m.OccurredAt.Format("2006-01-02 15:04"), m.Kind, m.Amount, m.Description)
	}
	return nil
}
