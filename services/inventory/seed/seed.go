// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package seed loads the embedded sample catalog into an inventory
// database.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

//go:embed sample_data.yaml
var sampleData []byte

// ErrNotEmpty is returned when the database already holds products or
// users and Force is off.
var ErrNotEmpty = errors.New("database is not empty; use --force to seed anyway")

// =============================================================================
// Data File
// =============================================================================

// Data is the decoded sample_data.yaml.
type Data struct {
	PurchaseDaysAgo int        `yaml:"purchase_days_ago"`
	Users           []User     `yaml:"users"`
	Suppliers       []Supplier `yaml:"suppliers"`
	Categories      []Category `yaml:"categories"`
	Products        []Product  `yaml:"products"`
	Sales           []Sale     `yaml:"sales"`
	StockOverrides  []Override `yaml:"stock_overrides"`
}

type User struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

type Supplier struct {
	Name          string `yaml:"name"`
	ContactPerson string `yaml:"contact_person"`
	Email         string `yaml:"email"`
	Phone         string `yaml:"phone"`
	Address       string `yaml:"address"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Product references its category and supplier by name.
type Product struct {
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	SKU             string  `yaml:"sku"`
	UnitPrice       float64 `yaml:"unit_price"`
	Quantity        int     `yaml:"quantity"`
	ReorderLevel    int     `yaml:"reorder_level"`
	ReorderQuantity int     `yaml:"reorder_quantity"`
	Category        string  `yaml:"category"`
	Supplier        string  `yaml:"supplier"`
}

type Sale struct {
	SKU      string `yaml:"sku"`
	Quantity int    `yaml:"quantity"`
	DaysAgo  int    `yaml:"days_ago"`
}

// Override sets a product's stock without recording a transaction.
type Override struct {
	SKU      string `yaml:"sku"`
	Quantity int    `yaml:"quantity"`
}

// SampleData decodes the embedded catalog.
func SampleData() (Data, error) {
	return Parse(sampleData)
}

// Parse decodes a catalog and checks its cross references.
func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse sample data: %w", err)
	}
	cats := map[string]bool{}
	for _, c := range d.Categories {
		cats[c.Name] = true
	}
	sups := map[string]bool{}
	for _, s := range d.Suppliers {
		sups[s.Name] = true
	}
	skus := map[string]bool{}
	for _, p := range d.Products {
		if !cats[p.Category] {
			return d, fmt.Errorf("product %s: unknown category %q", p.SKU, p.Category)
		}
		if !sups[p.Supplier] {
			return d, fmt.Errorf("product %s: unknown supplier %q", p.SKU, p.Supplier)
		}
		skus[strings.ToUpper(p.SKU)] = true
	}
	for _, s := range d.Sales {
		if !skus[strings.ToUpper(s.SKU)] {
			return d, fmt.Errorf("sale: unknown sku %q", s.SKU)
		}
	}
	for _, o := range d.StockOverrides {
		if !skus[strings.ToUpper(o.SKU)] {
			return d, fmt.Errorf("stock override: unknown sku %q", o.SKU)
		}
	}
	return d, nil
}

// =============================================================================
// Loader
// =============================================================================

// PasswordHasher hashes seed user passwords. *auth.Service satisfies it.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Options controls a Load.
type Options struct {
	// Force seeds a non-empty database. Rows whose key already exists
	// (username, category or supplier name, SKU) are reused, and history
	// is only written for products created by this run.
	Force bool

	// Now anchors the relative transaction dates. Zero uses time.Now.
	Now time.Time
}

// Summary counts the rows a Load created.
type Summary struct {
	Users        int
	Suppliers    int
	Categories   int
	Products     int
	Transactions int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d suppliers, %d categories, %d products, %d transactions",
		s.Users, s.Suppliers, s.Categories, s.Products, s.Transactions)
}

// Loader writes a Data set to the store.
type Loader struct {
	store  *storage.Store
	hasher PasswordHasher
	audit  extensions.AuditLogger
}

func NewLoader(store *storage.Store, hasher PasswordHasher, audit extensions.AuditLogger) *Loader {
	if audit == nil {
		audit = &extensions.NopAuditLogger{}
	}
	return &Loader{store: store, hasher: hasher, audit: audit}
}

// Load writes d in one database transaction.
//
// # Description
//
// Users, suppliers and categories are created first, then products with
// an initial purchase dated PurchaseDaysAgo days before Now. Sales are
// recorded against the first non-admin user and decrement stock. Stock
// overrides are applied last. Audit events are emitted with source
// "seed" after the commit.
//
// # Outputs
//
//   - Summary: rows created.
//   - error: ErrNotEmpty without Force on a populated database.
func (l *Loader) Load(ctx context.Context, d Data, opts Options) (Summary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	var sum Summary
	var events []extensions.AuditEvent
	err := l.store.InTx(ctx, func(q *storage.Queries) error {
		if !opts.Force {
			if err := ensureEmpty(ctx, q); err != nil {
				return err
			}
		}

		users, err := l.loadUsers(ctx, q, d.Users, &sum)
		if err != nil {
			return err
		}
		catIDs, err := loadCategories(ctx, q, d.Categories, &sum)
		if err != nil {
			return err
		}
		supIDs, err := loadSuppliers(ctx, q, d.Suppliers, &sum)
		if err != nil {
			return err
		}

		created := map[string]*datatypes.Product{}
		purchasedAt := now.AddDate(0, 0, -d.PurchaseDaysAgo)
		for _, sp := range d.Products {
			if _, err := q.ProductBySKU(ctx, sp.SKU); err == nil {
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			p := datatypes.Product{
				Name:            sp.Name,
				Description:     sp.Description,
				SKU:             sp.SKU,
				UnitPrice:       sp.UnitPrice,
				QuantityInStock: sp.Quantity,
				ReorderLevel:    sp.ReorderLevel,
				ReorderQuantity: sp.ReorderQuantity,
				CategoryID:      catIDs[sp.Category],
				SupplierID:      supIDs[sp.Supplier],
			}
			if err := q.CreateProduct(ctx, &p); err != nil {
				return fmt.Errorf("create product %s: %w", sp.SKU, err)
			}
			sum.Products++
			created[strings.ToUpper(p.SKU)] = &p

			if p.QuantityInStock <= 0 {
				continue
			}
			tx := datatypes.Transaction{
				ProductID:       p.ID,
				Type:            datatypes.TxPurchase,
				Quantity:        p.QuantityInStock,
				UnitPrice:       p.UnitPrice,
				TotalPrice:      p.UnitPrice * float64(p.QuantityInStock),
				TransactionDate: purchasedAt,
				Notes:           "Initial stock purchase of " + p.Name,
				CreatedBy:       users.admin,
			}
			if err := q.CreateTransaction(ctx, &tx); err != nil {
				return err
			}
			sum.Transactions++
			events = append(events, auditEvent(tx, p, tx.Quantity))
		}

		for _, s := range d.Sales {
			p, ok := created[strings.ToUpper(s.SKU)]
			if !ok {
				continue
			}
			tx := datatypes.Transaction{
				ProductID:       p.ID,
				Type:            datatypes.TxSale,
				Quantity:        s.Quantity,
				UnitPrice:       p.UnitPrice,
				TotalPrice:      p.UnitPrice * float64(s.Quantity),
				TransactionDate: now.AddDate(0, 0, -s.DaysAgo),
				Notes:           "Sale of " + p.Name,
				CreatedBy:       users.staff,
			}
			if err := q.CreateTransaction(ctx, &tx); err != nil {
				return err
			}
			p.QuantityInStock -= s.Quantity
			if err := q.SetProductStock(ctx, p.ID, p.QuantityInStock); err != nil {
				return err
			}
			sum.Transactions++
			events = append(events, auditEvent(tx, *p, -s.Quantity))
		}

		for _, o := range d.StockOverrides {
			p, ok := created[strings.ToUpper(o.SKU)]
			if !ok {
				continue
			}
			p.QuantityInStock = o.Quantity
			if err := q.SetProductStock(ctx, p.ID, o.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	for _, ev := range events {
		if err := l.audit.Log(ctx, ev); err != nil {
			slog.Warn("seed audit event dropped", "sku", ev.ProductSKU, "error", err)
		}
	}
	slog.Info("sample data loaded", "summary", sum.String())
	return sum, nil
}

func ensureEmpty(ctx context.Context, q *storage.Queries) error {
	users, err := q.CountUsers(ctx)
	if err != nil {
		return err
	}
	products, err := q.CountProducts(ctx)
	if err != nil {
		return err
	}
	if users > 0 || products > 0 {
		return ErrNotEmpty
	}
	return nil
}

// seedUsers holds the ids transactions are attributed to.
type seedUsers struct {
	admin *int64
	staff *int64
}

func (l *Loader) loadUsers(ctx context.Context, q *storage.Queries, in []User, sum *Summary) (seedUsers, error) {
	var out seedUsers
	for _, su := range in {
		u, err := q.UserByUsername(ctx, su.Username)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			hash, herr := l.hasher.HashPassword(su.Password)
			if herr != nil {
				return out, fmt.Errorf("hash password for %s: %w", su.Username, herr)
			}
			u = datatypes.User{Username: su.Username, Email: su.Email, PasswordHash: hash, IsAdmin: su.Admin}
			if err := q.CreateUser(ctx, &u); err != nil {
				return out, fmt.Errorf("create user %s: %w", su.Username, err)
			}
			sum.Users++
		case err != nil:
			return out, err
		}
		id := u.ID
		if u.IsAdmin && out.admin == nil {
			out.admin = &id
		}
		if !u.IsAdmin && out.staff == nil {
			out.staff = &id
		}
	}
	if out.staff == nil {
		out.staff = out.admin
	}
	return out, nil
}

func loadCategories(ctx context.Context, q *storage.Queries, in []Category, sum *Summary) (map[string]int64, error) {
	existing, err := q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(in))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	for _, sc := range in {
		if _, ok := ids[sc.Name]; ok {
			continue
		}
		c := datatypes.Category{Name: sc.Name, Description: sc.Description}
		if err := q.CreateCategory(ctx, &c); err != nil {
			return nil, fmt.Errorf("create category %s: %w", sc.Name, err)
		}
		ids[c.Name] = c.ID
		sum.Categories++
	}
	return ids, nil
}

func loadSuppliers(ctx context.Context, q *storage.Queries, in []Supplier, sum *Summary) (map[string]int64, error) {
	existing, err := q.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(in))
	for _, s := range existing {
		ids[s.Name] = s.ID
	}
	for _, ss := range in {
		if _, ok := ids[ss.Name]; ok {
			continue
		}
		s := datatypes.Supplier{
			Name:          ss.Name,
			ContactPerson: ss.ContactPerson,
			Email:         ss.Email,
			Phone:         ss.Phone,
			Address:       ss.Address,
		}
		if err := q.CreateSupplier(ctx, &s); err != nil {
			return nil, fmt.Errorf("create supplier %s: %w", ss.Name, err)
		}
		ids[s.Name] = s.ID
		sum.Suppliers++
	}
	return ids, nil
}

func auditEvent(tx datatypes.Transaction, p datatypes.Product, delta int) extensions.AuditEvent {
	var userID int64
	if tx.CreatedBy != nil {
		userID = *tx.CreatedBy
	}
	return extensions.AuditEvent{
		EventType:  "stock." + strings.ToLower(tx.Type),
		Timestamp:  tx.TransactionDate,
		UserID:     userID,
		ProductID:  p.ID,
		ProductSKU: p.SKU,
		TxType:     tx.Type,
		Quantity:   tx.Quantity,
		Delta:      delta,
		UnitPrice:  tx.UnitPrice,
		StockAfter: p.QuantityInStock,
		Source:     extensions.SourceSeed,
	}
}
