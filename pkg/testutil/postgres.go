package testutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgpkg "github.com/pawnline/loanengine/pkg/postgres"
)

// PostgresContainer is a migrated PostgreSQL instance owned by one test.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool
}

// StartPostgres starts a PostgreSQL container, applies the migrations found
// under dir in fsys and tears everything down when the test ends. It skips
// the test in -short mode.
func StartPostgres(t *testing.T, fsys fs.FS, dir string) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("loanengine_test"),
		postgres.WithUsername("loanengine"),
		postgres.WithPassword("loanengine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	pc := &PostgresContainer{Container: container}
	t.Cleanup(func() { pc.terminate(t) })

	if pc.DSN, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	if err := pgpkg.RunMigrations(pc.DSN, fsys, dir); err != nil {
		t.Fatalf("apply migrations from %s: %v", dir, err)
	}
	if pc.Pool, err = pgxpool.New(ctx, pc.DSN); err != nil {
		t.Fatalf("open pool: %v", err)
	}
	if err := pgpkg.HealthCheck(ctx, pc.Pool); err != nil {
		t.Fatal(err)
	}
	return pc
}

// Truncate empties the given tables between subtests.
func (pc *PostgresContainer) Truncate(ctx context.Context, t *testing.T, tables ...string) {
	t.Helper()

	for _, table := range tables {
		if _, err := pc.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

func (pc *PostgresContainer) terminate(t *testing.T) {
	if pc.Pool != nil {
		pc.Pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("terminate postgres container: %v", err)
	}
}
