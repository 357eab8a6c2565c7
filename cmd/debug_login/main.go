// Command debug_login mints an access token for local testing and, with
// -wallet, prints the user's balance against the sum of their ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/config"
	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/middleware"
	"github.com/lumenai/companion-api/internal/pkg/database"
	"github.com/lumenai/companion-api/internal/pkg/jwt"
)

func main() {
	userFlag := flag.String("user", "", "user id (random when empty)")
	roleFlag := flag.String("role", "user", "token role: user or admin")
	walletFlag := flag.Bool("wallet", false, "print wallet reconciliation for the user")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("debug_login refuses to run with ENV=production")
	}

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("Invalid user id: %v", err)
		}
		userID = parsed
	}

	role := *roleFlag
	if role != "user" && role != middleware.RoleAdmin {
		log.Fatalf("Unknown role %q", role)
	}

	token, err := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL).GenerateAccessToken(userID, role)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println("user_id:", userID)
	fmt.Println("role:   ", role)
	fmt.Println("token:  ", token)

	if !*walletFlag {
		return
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.ClosePostgres(db)

	txRepo := wallet.NewTransactionRepository(db)
	svc := wallet.NewService(wallet.Deps{
		Balances: wallet.NewRepository(db),
		History:  txRepo,
		Traces:   wallet.NewTraceRepository(db),
	}, wallet.Options{InitialGrant: cfg.InitialGrant})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := svc.Reconcile(ctx, userID.String())
	if err != nil {
		log.Fatalf("Failed to reconcile wallet: %v", err)
	}

	fmt.Println("--- Wallet ---")
	fmt.Printf("balance:    %d\n", rec.Balance)
	fmt.Printf("ledger sum: %d\n", rec.LedgerSum)
	fmt.Printf("drift:      %d\n", rec.Drift)

	txs, err := svc.ListTransactions(ctx, userID.String(), 10, 0)
	if err != nil {
		log.Fatalf("Failed to list transactions: %v", err)
	}
	for _, tx := range txs {
		fmt.Printf("%s %-8s %6d %6d -> %-6d %s\n",
			tx.CreatedAt.Format(time.RFC3339), tx.Type, tx.Amount, tx.BeforeBalance, tx.AfterBalance, tx.ItemType)
	}
	if rec.Drift != 0 {
		os.Exit(2)
	}
}
