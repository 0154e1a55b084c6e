package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// odfContentPath is the main content part of any OpenDocument file.
// Text documents (.odt), presentations (.odp), and spreadsheets (.ods)
// all keep their body under content.xml, so one parser covers all three.
const odfContentPath = "content.xml"

// odfTextNodes match OpenDocument text elements with optional attributes.
// Paragraphs first, then spans, then headings.
var odfTextNodes = []*regexp.Regexp{
	regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`),
	regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`),
	regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`),
}

// extractODF extracts text from OpenDocument bytes (.odt, .odp, .ods).
func extractODF(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}

	contentXML, err := zipEntry(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	if contentXML == nil {
		return "", fmt.Errorf("extract OpenDocument: %s not found", odfContentPath)
	}

	var b strings.Builder
	for _, re := range odfTextNodes {
		for _, m := range re.FindAllSubmatch(contentXML, -1) {
			text := strings.TrimSpace(string(m[1]))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}
