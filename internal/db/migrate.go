package db

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"lynkledger/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migrationDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations and returns the names it applied.
func Migrate(ctx context.Context, database migrationDB) ([]string, error) {
	return migrate(ctx, database, migrationFiles)
}

func migrate(ctx context.Context, database migrationDB, files fs.FS) ([]string, error) {
	log := logger.WithComponent("migrate")
	if _, err := database.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		return nil, err
	}
	names, err := fs.Glob(files, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var applied []string
	for _, name := range names {
		filename := name[strings.LastIndex(name, "/")+1:]
		var exists bool
		if err := database.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			return applied, err
		}
		if exists {
			continue
		}
		content, err := fs.ReadFile(files, name)
		if err != nil {
			return applied, err
		}
		for _, stmt := range upStatements(string(content)) {
			if _, err := database.ExecContext(ctx, stmt); err != nil {
				return applied, err
			}
		}
		if _, err := database.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			return applied, err
		}
		log.Info().Str("file", filename).Msg("applied migration")
		applied = append(applied, filename)
	}
	return applied, nil
}

func upStatements(content string) []string {
	up := strings.Split(content, "-- +migrate Down")[0]
	var statements []string
	for _, stmt := range splitSQL(up) {
		if strings.TrimSpace(stmt) != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
