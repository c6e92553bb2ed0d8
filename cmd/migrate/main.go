package main

import (
	"context"
	"flag"
	"time"

	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/infra/sqlite"
	"github.com/dvloznov/finance-insights/internal/logger"
)

var (
	projectID  = flag.String("project", "", "GCP project ID (required for BigQuery)")
	datasetID  = flag.String("dataset", "finance", "BigQuery dataset ID")
	appliedBy  = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	sqlitePath = flag.String("sqlite", "", "Create or upgrade a SQLite database at this path instead of BigQuery")
)

func main() {
	flag.Parse()

	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if *sqlitePath != "" {
		// Open applies the schema.
		store, err := sqlite.Open(*sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *sqlitePath).Msg("Failed to migrate SQLite database")
		}
		store.Close()
		log.Info().Str("path", *sqlitePath).Msg("SQLite database is up to date")
		return
	}

	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	repo, err := infraBQ.NewRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer repo.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	applied, err := repo.Migrate(ctx, *appliedBy)
	if err != nil {
		repo.Close()
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", applied).Msg("Successfully applied migrations")
	}
}
