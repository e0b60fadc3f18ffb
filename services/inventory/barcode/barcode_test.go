// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package barcode

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeDataURL_QRCode(t *testing.T) {
	matrix, err := qrcode.NewQRCodeWriter().Encode("EL-LAP-001", gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)

	text, err := DecodeDataURL(pngDataURL(t, matrix))
	require.NoError(t, err)
	assert.Equal(t, "EL-LAP-001", text)
}

func TestDecodeDataURL_NoBarcode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	blank.Set(1, 1, color.Black)

	_, err := DecodeDataURL(pngDataURL(t, blank))
	assert.ErrorIs(t, err, ErrNoBarcode)
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	tests := map[string]string{
		"no comma":     "data:image/png;base64",
		"no header":    "hello,world",
		"bad base64":   "data:image/png;base64,@@@",
		"not an image": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURL(in)
			assert.ErrorIs(t, err, ErrInvalidDataURL)
		})
	}
}
