package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
	"google.golang.org/api/iterator"
)

const schemaMigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationPattern matches migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is a single versioned schema change.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	// Checksum is taken over the file before placeholders are replaced, so
	// the same migration matches across projects and datasets.
	Checksum string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// EmbeddedMigrations returns the migrations shipped with the binary, with
// {{PROJECT_ID}} and {{DATASET_ID}} filled in.
func EmbeddedMigrations(projectID, dataset string) ([]Migration, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return ParseMigrations(sub, projectID, dataset)
}

// ParseMigrations reads every NNNN_name.sql file at the root of fsys, sorted
// by version. Files with other names are ignored; duplicate versions fail.
func ParseMigrations(fsys fs.FS, projectID, dataset string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("migration version %04d used by %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", dataset)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Pending returns the migrations whose version is not in applied. A changed
// checksum on an applied version is reported in the second return value.
func Pending(all []Migration, applied []AppliedMigration) ([]Migration, []Migration) {
	done := make(map[int]string, len(applied))
	for _, am := range applied {
		done[am.Version] = am.Checksum
	}

	var pending, changed []Migration
	for _, m := range all {
		checksum, ok := done[m.Version]
		switch {
		case !ok:
			pending = append(pending, m)
		case checksum != "" && checksum != m.Checksum:
			changed = append(changed, m)
		}
	}
	return pending, changed
}

// MigrateWithClient applies the embedded migrations that are not yet
// recorded in the dataset and returns how many ran.
func MigrateWithClient(ctx context.Context, client *bigquery.Client, dataset, appliedBy string) (int, error) {
	log := logger.FromContext(ctx).With().Str("dataset", dataset).Logger()

	if err := ensureSchemaMigrationsTable(ctx, client, dataset); err != nil {
		return 0, fmt.Errorf("Migrate: ensuring %s: %w", schemaMigrationsTable, err)
	}

	all, err := EmbeddedMigrations(client.Project(), dataset)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}
	applied, err := appliedMigrations(ctx, client, dataset)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}

	pending, changed := Pending(all, applied)
	for _, m := range changed {
		log.Warn().Int("version", m.Version).Str("name", m.Name).Msg("Applied migration was modified since it ran")
	}

	for _, m := range pending {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")
		if err := runStatement(ctx, client.Query(m.SQL)); err != nil {
			return 0, fmt.Errorf("Migrate: executing %s: %w", m.Filename, err)
		}
		if err := recordMigration(ctx, client, dataset, m, appliedBy); err != nil {
			return 0, fmt.Errorf("Migrate: recording %s: %w", m.Filename, err)
		}
	}
	return len(pending), nil
}

func ensureSchemaMigrationsTable(ctx context.Context, client *bigquery.Client, dataset string) error {
	q := client.Query(`
		CREATE TABLE IF NOT EXISTS ` + tableRef(client, dataset, schemaMigrationsTable) + ` (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`)
	return runStatement(ctx, q)
}

func appliedMigrations(ctx context.Context, client *bigquery.Client, dataset string) ([]AppliedMigration, error) {
	q := client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + tableRef(client, dataset, schemaMigrationsTable) + `
		ORDER BY version ASC
	`)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating applied migrations: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func recordMigration(ctx context.Context, client *bigquery.Client, dataset string, m Migration, appliedBy string) error {
	q := client.Query(`
		INSERT INTO ` + tableRef(client, dataset, schemaMigrationsTable) + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: appliedBy},
	}
	return runStatement(ctx, q)
}

// runStatement runs q as a job and waits for it to finish.
func runStatement(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
