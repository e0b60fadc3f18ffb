// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Title("Inventory")
	p.Success("seeded")
	p.Warning("low stock")
	p.Info("3 products")
	p.Summary("products", 3, "low", 1)

	assert.Equal(t, "OK: seeded\nWARN: low stock\n3 products\nSUMMARY: products=3 low=1\n", buf.String())
}

func TestPrinter_PlainTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Table([]string{"SKU", "Name"}, [][]string{{"EL-LAP-001", "Laptop"}, {"EL-HEAD-001", "Headphones"}}, nil)

	assert.Equal(t, "SKU\tName\nEL-LAP-001\tLaptop\nEL-HEAD-001\tHeadphones\n", buf.String())
}

func TestPrinter_StyledTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Table([]string{"SKU", "Name"}, [][]string{{"EL-LAP-001", "Laptop"}}, func(row int) bool { return row == 0 })

	out := buf.String()
	assert.Contains(t, out, "EL-LAP-001")
	assert.Contains(t, out, "Laptop")
	assert.Contains(t, out, "╭")
}

func TestIcon_Render(t *testing.T) {
	for _, i := range []Icon{IconSuccess, IconWarning, IconError, IconBullet} {
		assert.Contains(t, i.Render(), string(i))
	}
}
