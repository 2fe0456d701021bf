package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/postgres"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
	"github.com/sandbox-pool/infra/packages/api/internal/thresholds"
	"github.com/sandbox-pool/infra/packages/shared/pkg/db"
	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

// Seeds a fresh postgres store with pool accounts and a default lease template.
func main() {
	ctx := context.Background()

	connectionString := os.Getenv("POSTGRES_CONNECTION_STRING")
	if connectionString == "" {
		fmt.Println("Error: POSTGRES_CONNECTION_STRING is not set")

		return
	}

	pool, err := db.NewPool(ctx, connectionString)
	if err != nil {
		fmt.Println("Error connecting to database:", err)

		return
	}
	defer pool.Close()

	backend := postgres.NewBackend(pool)
	if err := backend.Migrate(ctx); err != nil {
		fmt.Println("Error migrating database:", err)

		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("\nPlease enter the following values:")
	fmt.Println()

	fmt.Printf("Admin email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error reading input:", err)

		return
	}

	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email cannot be empty")

		return
	}

	fmt.Printf("AWS account IDs (comma separated): ")
	rawAccounts, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error reading input:", err)

		return
	}

	config := globalconfig.NewStaticProvider(globalconfig.GlobalConfig{})
	dispatcher := events.NewDispatcher(sharedevents.NewNoopDelivery[events.Event]())

	accountRegistry, err := accounts.NewRegistry(backend, dispatcher, config)
	if err != nil {
		fmt.Println("Error creating account registry:", err)

		return
	}

	for id := range strings.SplitSeq(rawAccounts, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		_, err := accountRegistry.Register(ctx, accounts.RegisterRequest{AwsAccountID: id})
		switch {
		case store.IsAlreadyExists(err):
			fmt.Printf("Account %s already registered, skipping\n", id)
		case err != nil:
			fmt.Printf("Error registering account %s: %v\n", id, err)

			return
		default:
			fmt.Printf("Registered account %s\n", id)
		}
	}

	templateCache := templates.NewCache(time.Minute)
	defer templateCache.Close(ctx)

	templateRegistry := templates.NewRegistry(backend, templateCache, config)

	template, err := templateRegistry.Create(ctx, email, templates.Spec{
		Name:                 "default",
		Description:          "Default lease template",
		MaxSpend:             utils.ToPtr(decimal.NewFromInt(50)),
		LeaseDurationInHours: utils.ToPtr(24),
		BudgetThresholds: []thresholds.BudgetThreshold{
			{DollarsSpent: decimal.NewFromInt(25), Action: thresholds.ActionAlert},
			{DollarsSpent: decimal.NewFromInt(50), Action: thresholds.ActionReclaim},
		},
		DurationThresholds: []thresholds.DurationThreshold{
			{HoursRemaining: 4, Action: thresholds.ActionAlert},
			{HoursRemaining: 0, Action: thresholds.ActionReclaim},
		},
	})
	if err != nil {
		fmt.Println("Error creating lease template:", err)

		return
	}

	fmt.Printf("Created lease template %s (%s)\n", template.Name, template.UUID)
	fmt.Println("Database seeded.")
}
