// Package qrcode renders QR codes for TOTP enrollment: raw PNG bytes or a
// base64 data URI ready for an <img> tag.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent indicates a blank payload.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")

	// ErrGenerationFailed indicates the underlying encoder rejected the
	// payload.
	ErrGenerationFailed = errors.New("qrcode: generation failed")
)

// DefaultSize is the image edge length used when size is not positive.
const DefaultSize = 256

// Generate encodes content into a PNG QR code of the given edge length.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerationFailed, err)
	}
	return png, nil
}

// GenerateBase64Image encodes content into a PNG data URI.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
