// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage is the relational persistence layer.
//
// # Architecture
//
//	┌────────────┐     ┌─────────────────────────────┐
//	│   Store    │────▶│ *sqlx.DB (sqlite | postgres)│
//	│  InTx(fn)  │     └─────────────────────────────┘
//	└─────┬──────┘
//	      │ *Queries bound to the DB or to a *sqlx.Tx
//	      ▼
//	 users, categories, suppliers, products, transactions,
//	 notifications, purchase orders, ml results
//
// Every repository method lives on *Queries, so the same code runs inside
// and outside a database transaction. Queries are written with "?"
// placeholders and rebound for the active driver.
//
// # Time Handling
//
// All timestamps are written in UTC. SQLite connections must use
// `_time_format=sqlite` so stored values sort lexicographically.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert or update violates a unique
	// constraint.
	ErrDuplicate = errors.New("duplicate value")
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store owns the connection pool.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects and pings the database.
//
// # Description
//
// For SQLite, foreign keys are switched on and in-memory databases are
// pinned to a single connection so every query sees the same data.
//
// # Inputs
//
//   - driver: "sqlite" or "postgres".
//   - dsn: driver-specific data source name.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			db.SetMaxOpenConns(1)
			db.SetConnMaxLifetime(0)
			db.SetConnMaxIdleTime(0)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Store{db: db, driver: driver}, nil
}

// NewFromDB wraps an existing handle. Tests use it with go-sqlmock.
func NewFromDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() string { return s.driver }

// DB exposes the pool for migrations and health checks.
func (s *Store) DB() *sqlx.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Queries returns repository methods bound to the pool.
func (s *Store) Queries() *Queries {
	return &Queries{db: s.db}
}

// InTx runs fn inside a database transaction.
//
// # Description
//
// The transaction is committed when fn returns nil and rolled back
// otherwise. A panic in fn rolls back and re-panics.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&Queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Queries holds repository methods. Obtain one from Store.Queries or
// inside Store.InTx.
type Queries struct {
	db sqlx.ExtContext
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q.db, dest, q.db.Rebind(query), args...)
	return translate(err)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return translate(sqlx.SelectContext(ctx, q.db, dest, q.db.Rebind(query), args...))
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.db.Rebind(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// execOne is exec that reports ErrNotFound when no row changed.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	n, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// insert runs an INSERT ... RETURNING id and returns the new key.
func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := q.db.QueryRowxContext(ctx, q.db.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (q *Queries) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := q.get(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrDuplicate, liteErr.Error())
		}
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches s anywhere in a lower-cased column, with % and _
// in s taken literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
