// Copyright 2025 James Ross
//
// Package warehouse adapts a ClickHouse cluster into the snapshot-partitioned
// columnar store the migration pipeline reads and writes. Every stage's
// output is a new partition; later stages always read "the latest partition
// with date <= today".
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

// Config configures the ClickHouse connection and retry budget.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	WriteMaxRetries uint64        `mapstructure:"write_max_retries"`
	WriteBaseDelay  time.Duration `mapstructure:"write_base_delay"`
}

// Adapter is the warehouse client used by every controller and worker.
type Adapter struct {
	cfg Config
	db  *sql.DB
	log *zap.Logger
}

// Open establishes the ClickHouse connection. It does not create the
// database or any tables; callers must call EnsureDataset/EnsureTable.
func Open(cfg Config, log *zap.Logger) (*Adapter, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     cfg.DialTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		Compression:     &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, migerr.Wrap(migerr.KindWarehouseUnavailable, "connect to warehouse", err)
	}
	return &Adapter{cfg: cfg, db: db, log: log}, nil
}

// EnsureDataset creates the database if absent.
func (a *Adapter) EnsureDataset(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+a.cfg.Database)
	if err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "ensure dataset", err)
	}
	return nil
}

// DropDataset drops the database; used only by test/setup tooling.
func (a *Adapter) DropDataset(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, "DROP DATABASE IF EXISTS "+a.cfg.Database)
	if err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "drop dataset", err)
	}
	return nil
}

// EnsureTable creates a table from its declarative schema if it does not
// already exist.
func (a *Adapter) EnsureTable(ctx context.Context, table TableName) error {
	schema, ok := Schema(table)
	if !ok {
		return migerr.New(migerr.KindTypeMismatch, fmt.Sprintf("unknown table %q", table))
	}
	_, err := a.db.ExecContext(ctx, schema.createSQL(a.cfg.Database))
	if err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "ensure table "+string(table), err)
	}
	return nil
}

// EnsureView creates a view from its SQL body if it does not already exist.
func (a *Adapter) EnsureView(ctx context.Context, sqlBody string) error {
	_, err := a.db.ExecContext(ctx, sqlBody)
	if err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "ensure view", err)
	}
	return nil
}

// TableExists reports whether a table or view with the given name exists in
// the dataset, used by the analytics setup stage's precondition check.
func (a *Adapter) TableExists(ctx context.Context, name string) (bool, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT count() FROM system.tables WHERE database = ? AND name = ?",
		a.cfg.Database, name)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, migerr.Wrap(migerr.KindWarehouseUnavailable, "check table existence", err)
	}
	return n > 0, nil
}

// Row is a single record to write; values must match the table's declared
// column order.
type Row []any

// WriteRows inserts rows into table stamped with createdAt as the partition
// value. Failures are retried with exponential backoff up to the configured
// budget; exhaustion returns a migerr.KindWarehouseUnavailable error.
func (a *Adapter) WriteRows(ctx context.Context, table TableName, rows []Row, createdAt time.Time) error {
	schema, ok := Schema(table)
	if !ok {
		return migerr.New(migerr.KindTypeMismatch, fmt.Sprintf("unknown table %q", table))
	}
	if len(rows) == 0 {
		return nil
	}

	op := func() error {
		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		placeholders := ""
		colNames := ""
		for i, c := range schema.Columns {
			if i > 0 {
				placeholders += ", "
				colNames += ", "
			}
			placeholders += "?"
			colNames += c.Name
		}
		insertSQL := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)", a.cfg.Database, table, colNames, placeholders)
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			values := make([]any, len(r)+1)
			copy(values, r)
			values[len(r)] = createdAt
			if _, err := stmt.ExecContext(ctx, values...); err != nil {
				return err
			}
		}
		return tx.Commit()
	}

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = a.cfg.WriteBaseDelay
	bo := backoff.WithMaxRetries(boff, a.cfg.WriteMaxRetries)

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "write rows to "+string(table), err)
	}
	a.log.Info("wrote warehouse rows", zap.String("table", string(table)), zap.Int("count", len(rows)), zap.Time("created_at", createdAt))
	return nil
}

// LatestPartitionDate returns the maximum createdAt <= asOf found in table.
// Returns a migerr.KindInputMissing error if no such partition exists.
func (a *Adapter) LatestPartitionDate(ctx context.Context, table TableName, asOf time.Time) (time.Time, error) {
	schema, ok := Schema(table)
	if !ok {
		return time.Time{}, migerr.New(migerr.KindTypeMismatch, fmt.Sprintf("unknown table %q", table))
	}
	q := fmt.Sprintf("SELECT max(%s) FROM %s.%s WHERE %s <= ?", schema.PartitionColumn, a.cfg.Database, table, schema.PartitionColumn)
	row := a.db.QueryRowContext(ctx, q, asOf)
	var latest sql.NullTime
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, migerr.Wrap(migerr.KindWarehouseUnavailable, "query latest partition", err)
	}
	if !latest.Valid {
		return time.Time{}, migerr.New(migerr.KindInputMissing, fmt.Sprintf("no data yet in %s", table))
	}
	return latest.Time, nil
}

// Query runs query with args as given and scans results with scanRow, which
// is called once per returned row. It adds no partition predicate itself.
func (a *Adapter) Query(ctx context.Context, query string, args []any, scanRow func(*sql.Rows) error) error {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "query", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scanRow(rows); err != nil {
			return migerr.Wrap(migerr.KindWarehouseUnavailable, "scan row", err)
		}
	}
	if err := rows.Err(); err != nil {
		return migerr.Wrap(migerr.KindWarehouseUnavailable, "iterate rows", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (a *Adapter) Close() error {
	return a.db.Close()
}
