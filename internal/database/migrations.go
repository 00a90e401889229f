package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Migration represents a database migration
type Migration struct {
	Version  string
	Title    string // Human-readable title derived from filename
	UpSQL    string
	DownSQL  string
	Checksum string // SHA256 checksum of UpSQL content
}

// MigrationStatus pairs a migration file with its applied state
type MigrationStatus struct {
	Version   string
	Title     string
	AppliedAt *time.Time
}

// MigrationExecutor handles database migrations
type MigrationExecutor struct {
	db  *sql.DB
	dir string
}

// NewMigrationExecutor creates a new migration executor reading from dir
func NewMigrationExecutor(db *sql.DB, dir string) *MigrationExecutor {
	return &MigrationExecutor{db: db, dir: dir}
}

// Up executes all pending migrations and returns how many ran
func (m *MigrationExecutor) Up(ctx context.Context) (int, error) {
	migrations, applied, err := m.prepare(ctx)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := m.apply(ctx, migration); err != nil {
			return ran, fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		slog.Info("Applied migration", "version", migration.Version, "title", migration.Title)
		ran++
	}
	return ran, nil
}

// Down reverts the most recently applied migration. It returns the reverted
// version, or "" when nothing was applied.
func (m *MigrationExecutor) Down(ctx context.Context) (string, error) {
	migrations, applied, err := m.prepare(ctx)
	if err != nil {
		return "", err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if _, ok := applied[migration.Version]; !ok {
			continue
		}
		if migration.DownSQL == "" {
			return "", fmt.Errorf("migration %s has no down script", migration.Version)
		}
		err := WithTx(ctx, m.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
				return fmt.Errorf("down migration SQL failed: %w", err)
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, migration.Version)
			return err
		})
		if err != nil {
			return "", err
		}
		slog.Info("Reverted migration", "version", migration.Version, "title", migration.Title)
		return migration.Version, nil
	}
	return "", nil
}

// Status lists every migration file with the time it was applied, if any
func (m *MigrationExecutor) Status(ctx context.Context) ([]MigrationStatus, error) {
	migrations, applied, err := m.prepare(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		st := MigrationStatus{Version: migration.Version, Title: migration.Title}
		if at, ok := applied[migration.Version]; ok {
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *MigrationExecutor) prepare(ctx context.Context) ([]Migration, map[string]time.Time, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := ReadMigrationFiles(m.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read migration files: %w", err)
	}

	applied, checksums, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := validateChecksums(migrations, checksums); err != nil {
		return nil, nil, fmt.Errorf("migration validation failed: %w", err)
	}
	return migrations, applied, nil
}

func (m *MigrationExecutor) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			title VARCHAR(500),
			checksum VARCHAR(64),
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// ReadMigrationFiles reads NNN_name.up.sql / NNN_name.down.sql pairs from dir,
// sorted by version.
func ReadMigrationFiles(dir string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)
	for _, file := range files {
		filename := file.Name()
		isUp := strings.HasSuffix(filename, ".up.sql")
		isDown := strings.HasSuffix(filename, ".down.sql")
		if file.IsDir() || (!isUp && !isDown) {
			continue
		}

		version, rest, ok := strings.Cut(filename, "_")
		if !ok {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return nil, err
		}

		mig := byVersion[version]
		if mig == nil {
			title := strings.TrimSuffix(strings.TrimSuffix(rest, ".up.sql"), ".down.sql")
			mig = &Migration{Version: version, Title: strings.ReplaceAll(title, "_", " ")}
			byVersion[version] = mig
		}

		if isUp {
			mig.UpSQL = string(content)
			mig.Checksum = calculateChecksum(mig.UpSQL)
		} else {
			mig.DownSQL = string(content)
		}
	}

	var migrations []Migration
	for _, mig := range byVersion {
		if mig.UpSQL != "" {
			migrations = append(migrations, *mig)
		}
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *MigrationExecutor) appliedMigrations(ctx context.Context) (map[string]time.Time, map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, COALESCE(checksum, ''), applied_at FROM schema_migrations`)
	if err != nil {
		return nil, nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	applied := make(map[string]time.Time)
	checksums := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		var at time.Time
		if err := rows.Scan(&version, &checksum, &at); err != nil {
			return nil, nil, err
		}
		applied[version] = at
		if checksum != "" {
			checksums[version] = checksum
		}
	}
	return applied, checksums, rows.Err()
}

func (m *MigrationExecutor) apply(ctx context.Context, migration Migration) error {
	return WithTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("migration SQL failed: %w", err)
		}
		query := `INSERT INTO schema_migrations (version, title, checksum) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Title, migration.Checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// validateChecksums verifies that applied migrations haven't been modified
func validateChecksums(migrations []Migration, applied map[string]string) error {
	var mismatches []string
	for _, migration := range migrations {
		checksum, ok := applied[migration.Version]
		if ok && checksum != migration.Checksum {
			mismatches = append(mismatches, fmt.Sprintf(
				"\n  Migration %s (%s):\n    Expected checksum: %s\n    Current checksum:  %s",
				migration.Version, migration.Title, checksum, migration.Checksum,
			))
		}
	}

	if len(mismatches) > 0 {
		return fmt.Errorf(
			"applied migrations have been modified:%s\n"+
				"restore the original files or add a new migration instead",
			strings.Join(mismatches, ""),
		)
	}
	return nil
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
