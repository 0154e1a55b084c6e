//go:build !cgo
// +build !cgo

package extract

import "errors"

// extractImage stub when built without CGO (see image.go for the real
// implementation). Image files fail extraction instead of being skipped
// silently, so they show up in the ingest report.
func extractImage(_ []byte) (string, error) {
	return "", errors.New("image OCR requires CGO; build with CGO_ENABLED=1 and tesseract")
}
