package tools

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Warehouse runs read-only analytics queries against a Postgres warehouse
// and renders result sets as CSV for downstream synthesis.
type Warehouse struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenWarehouse connects to the warehouse using a lib/pq DSN.
func OpenWarehouse(dsn string, log *zap.Logger) (*Warehouse, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	return &Warehouse{db: db, log: log}, nil
}

// NewWarehouse wraps an already opened database handle.
func NewWarehouse(db *sql.DB, log *zap.Logger) *Warehouse {
	if log == nil {
		log = zap.NewNop()
	}
	return &Warehouse{db: db, log: log}
}

// QueryCSV executes the query and returns the full result set as CSV,
// header row first.
func (w *Warehouse) QueryCSV(ctx context.Context, sqlQuery string) (string, error) {
	w.log.Info("running warehouse query")

	rows, err := w.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return "", fmt.Errorf("warehouse query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("warehouse columns: %w", err)
	}

	var records [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("warehouse scan: %w", err)
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			if v.Valid {
				rec[i] = v.String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("warehouse rows: %w", err)
	}

	return rowsToCSV(cols, records)
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

func rowsToCSV(header []string, records [][]string) (string, error) {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	if err := cw.Write(header); err != nil {
		return "", err
	}
	if err := cw.WriteAll(records); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
