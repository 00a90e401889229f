package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"

	"precinct/internal/database"
)

// TestSecret signs the access tokens of handler tests.
const TestSecret = "test-secret-key-for-testing-only"

// TestContainers holds references to test containers
type TestContainers struct {
	PostgresContainer *postgres.PostgresContainer
	DB                *sql.DB
	DBConnString      string
	JWTSecret         []byte
}

// SetupTestContainers starts a PostgreSQL container and applies the
// migrations. Tests calling it are skipped under -short.
func SetupTestContainers(t *testing.T) *TestContainers {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("precinct_test"),
		postgres.WithUsername("precinct_test"),
		postgres.WithPassword("precinct_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if _, err := database.NewMigrationExecutor(db, migrationsDir()).Up(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tc := &TestContainers{
		PostgresContainer: postgresContainer,
		DB:                db,
		DBConnString:      connStr,
		JWTSecret:         []byte(TestSecret),
	}
	t.Cleanup(func() { tc.Cleanup(t) })
	return tc
}

// Cleanup terminates all test containers
func (tc *TestContainers) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if tc.DB != nil {
		tc.DB.Close()
		tc.DB = nil
	}

	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
		tc.PostgresContainer = nil
	}
}

// migrationsDir finds the migrations directory relative to the package under
// test
func migrationsDir() string {
	dir := filepath.Join("..", "..", "migrations")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = filepath.Join("..", "..", "..", "migrations")
	}
	return dir
}

// RolesFile returns the path of the shipped role seed relative to the
// package under test
func RolesFile() string {
	return filepath.Join(filepath.Dir(migrationsDir()), "config", "roles.yaml")
}
