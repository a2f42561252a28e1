package ux

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderQR draws payload as a QR code made of half-block characters so it
// can be scanned straight from the terminal. The payload is encoded as is.
func RenderQR(payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("empty QR payload")
	}
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return code.ToSmallString(false), nil
}
