// cmd/tools/seed-directory/main.go

// seed-directory loads a JSON applicant seed file into the Postgres
// directory backend, creating the table if needed. The seed is validated
// against the same schema the static directory uses, so a file that loads
// here also works with directory.source=static.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Samtoosoon/bankgpt/internal/common/config"
	"github.com/Samtoosoon/bankgpt/internal/common/database"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/directory"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS applicants (
		phone              VARCHAR(10) PRIMARY KEY,
		name               TEXT NOT NULL,
		credit_score       INTEGER NOT NULL DEFAULT 0,
		monthly_income     NUMERIC NOT NULL DEFAULT 0,
		pre_approved_limit NUMERIC NOT NULL DEFAULT 0,
		blacklisted        BOOLEAN NOT NULL DEFAULT FALSE
	)`

const upsertRecord = `
	INSERT INTO applicants (phone, name, credit_score, monthly_income, pre_approved_limit, blacklisted)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (phone) DO UPDATE SET
		name = EXCLUDED.name,
		credit_score = EXCLUDED.credit_score,
		monthly_income = EXCLUDED.monthly_income,
		pre_approved_limit = EXCLUDED.pre_approved_limit,
		blacklisted = EXCLUDED.blacklisted`

func main() {
	seedPath := flag.String("seed", "data/applicants.json", "path to the applicant seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	seed, err := directory.NewStaticDirectory(*seedPath)
	if err != nil {
		zapLog.Fatal("seed file invalid", zap.String("path", *seedPath), zap.Error(err))
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()
	if _, err := pg.Exec(ctx, createTable); err != nil {
		zapLog.Fatal("create table failed", zap.Error(err))
	}

	for _, record := range seed.Records() {
		_, err := pg.Exec(ctx, upsertRecord,
			record.Phone,
			record.Name,
			record.CreditScore,
			record.MonthlyIncome,
			record.PreApprovedLimit,
			record.Blacklisted,
		)
		if err != nil {
			zapLog.Fatal("upsert failed", zap.String("phone", record.Phone), zap.Error(err))
		}
	}

	zapLog.Info("seed loaded",
		zap.String("path", *seedPath),
		zap.Int("records", seed.Len()),
	)
}
