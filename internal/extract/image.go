//go:build cgo
// +build cgo

package extract

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// extractImage runs OCR on image bytes using Tesseract. Requires CGO and the
// tesseract library at build time.
func extractImage(content []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(content); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
