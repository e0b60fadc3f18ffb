// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

const userColumns = `id, username, email, password_hash, is_admin, created_at, updated_at`

// CreateUser inserts u and sets its ID and timestamps.
func (q *Queries) CreateUser(ctx context.Context, u *datatypes.User) error {
	ts := now()
	id, err := q.insert(ctx, `INSERT INTO users (username, email, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, u.Username, u.Email, u.PasswordHash, u.IsAdmin, ts, ts)
	if err != nil {
		return err
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, ts, ts
	return nil
}

func (q *Queries) UserByID(ctx context.Context, id int64) (datatypes.User, error) {
	var u datatypes.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u, err
}

func (q *Queries) UserByUsername(ctx context.Context, username string) (datatypes.User, error) {
	var u datatypes.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return u, err
}

func (q *Queries) UserByEmail(ctx context.Context, email string) (datatypes.User, error) {
	var u datatypes.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return u, err
}

// UserEmails returns every non-empty user email, the analytics report
// recipient list.
func (q *Queries) UserEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := q.selectAll(ctx, &emails, `SELECT email FROM users WHERE email <> '' ORDER BY id`)
	return emails, err
}

func (q *Queries) CountUsers(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM users`)
}
