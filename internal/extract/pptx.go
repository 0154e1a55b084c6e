package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// pptxSlidePrefix is the path prefix of slide XML parts inside a .pptx zip.
const pptxSlidePrefix = "ppt/slides/slide"

// pptxTextNode matches <a:t>text</a:t> including nodes with attributes.
var pptxTextNode = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX extracts text from .pptx bytes by collecting all <a:t> text
// nodes from every ppt/slides/slideN.xml part.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract PPTX: %w", err)
	}

	var b strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract PPTX: open %s: %w", f.Name, err)
		}
		slide, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract PPTX: read %s: %w", f.Name, err)
		}
		for _, m := range pptxTextNode.FindAllSubmatch(slide, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(m[1])
		}
	}
	return strings.TrimSpace(b.String()), nil
}
