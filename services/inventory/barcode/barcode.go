// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package barcode extracts SKU text from barcode images captured in the
// browser and posted as data URLs.
package barcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrInvalidDataURL covers a missing header, bad base64 or an
	// undecodable image.
	ErrInvalidDataURL = errors.New("invalid data URI format for barcode image")

	// ErrNoBarcode means the image decoded but no reader found a code.
	ErrNoBarcode = errors.New("no barcode found in image")
)

// readers are tried in order; the first successful decode wins.
var readers = []func() gozxing.Reader{
	func() gozxing.Reader { return qrcode.NewQRCodeReader() },
	func() gozxing.Reader { return oned.NewCode128Reader() },
	func() gozxing.Reader { return oned.NewEAN13Reader() },
	func() gozxing.Reader { return oned.NewUPCAReader() },
	func() gozxing.Reader { return oned.NewCode39Reader() },
}

// DecodeDataURL returns the text of the first barcode found in a
// "data:image/...;base64,..." URL.
//
// # Description
//
// The URL is split on its first comma. The payload is base64-decoded and
// parsed as PNG, JPEG or GIF, then passed to QR, Code 128, EAN-13,
// UPC-A and Code 39 readers in that order.
//
// # Outputs
//
//   - string: decoded text, trimmed.
//   - error: ErrInvalidDataURL or ErrNoBarcode (both wrapped).
func DecodeDataURL(dataURL string) (string, error) {
	img, err := imageFromDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return DecodeImage(img)
}

// DecodeImage runs the reader chain over img.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	for _, newReader := range readers {
		result, err := newReader().Decode(bmp, hints)
		if err != nil || result == nil {
			continue
		}
		if text := strings.TrimSpace(result.GetText()); text != "" {
			return text, nil
		}
	}
	return "", ErrNoBarcode
}

func imageFromDataURL(dataURL string) (image.Image, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, ErrInvalidDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return img, nil
}
