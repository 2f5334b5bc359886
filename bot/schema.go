package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoDatabase is returned by DBSchema when no database is connected.
var ErrNoDatabase = errors.New("bot has no active DB connection")

// DBSchema renders the CREATE statements of tables (all tables when none are
// given) as a sql code block.
func (b *Bot) DBSchema(ctx context.Context, tables ...string) (string, error) {
	if b.Db == nil {
		return "", ErrNoDatabase
	}

	var (
		stmts []string
		err   error
	)
	switch b.Driver {
	case DriverSQLite:
		stmts, err = b.sqliteSchema(ctx, tables)
	case DriverPostgres:
		stmts, err = b.postgresSchema(ctx, tables)
	default:
		return "", fmt.Errorf("schema listing not supported for driver %q", b.Driver)
	}
	if err != nil {
		return "", err
	}
	return "```sql\n" + strings.Join(stmts, "\n") + "```", nil
}

func placeholders(n int, numbered bool) string {
	ph := make([]string, n)
	for i := range ph {
		if numbered {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}

func anyArgs(tables []string) []any {
	args := make([]any, len(tables))
	for i, t := range tables {
		args[i] = t
	}
	return args
}

func (b *Bot) sqliteSchema(ctx context.Context, tables []string) ([]string, error) {
	query := "SELECT name, sql FROM sqlite_master WHERE sql IS NOT NULL"
	if len(tables) > 0 {
		query += " AND name IN (" + placeholders(len(tables), false) + ")"
	}

	rows, err := b.Db.QueryContext(ctx, query, anyArgs(tables)...)
	if err != nil {
		return nil, fmt.Errorf("querying sqlite_master: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var name, stmt string
		if err := rows.Scan(&name, &stmt); err != nil {
			return nil, err
		}
		if stmt == "" || strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, rows.Err()
}

type pgColumn struct {
	name, dataType, nullable string
	def                      *string
}

func (b *Bot) postgresSchema(ctx context.Context, tables []string) ([]string, error) {
	query := `SELECT table_name, column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema()`
	if len(tables) > 0 {
		query += " AND table_name IN (" + placeholders(len(tables), true) + ")"
	}
	query += " ORDER BY table_name, ordinal_position"

	rows, err := b.Db.QueryContext(ctx, query, anyArgs(tables)...)
	if err != nil {
		return nil, fmt.Errorf("querying information_schema: %w", err)
	}
	defer rows.Close()

	var order []string
	columns := make(map[string][]pgColumn)
	for rows.Next() {
		var table string
		var col pgColumn
		if err := rows.Scan(&table, &col.name, &col.dataType, &col.nullable, &col.def); err != nil {
			return nil, err
		}
		if _, seen := columns[table]; !seen {
			order = append(order, table)
		}
		columns[table] = append(columns[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(order))
	for _, table := range order {
		stmts = append(stmts, formatCreateTable(table, columns[table]))
	}
	return stmts, nil
}

func formatCreateTable(table string, cols []pgColumn) string {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def := "    " + c.name + " " + strings.ToUpper(c.dataType)
		if c.nullable == "NO" {
			def += " NOT NULL"
		}
		if c.def != nil {
			def += " DEFAULT " + *c.def
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(defs, ",\n"))
}
