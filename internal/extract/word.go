package extract

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// wordDocumentPath is the conventional path of the main document body
	// inside a .docx package.
	wordDocumentPath = "word/document.xml"

	// contentTypesPath names the OOXML part index.
	contentTypesPath = "[Content_Types].xml"

	// wordMainContentType identifies the main document part in the index.
	wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wordTextNode matches <w:t>text</w:t> including nodes carrying attributes
// such as xml:space="preserve".
var wordTextNode = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wordPartName pulls the PartName of the main document Override from
// [Content_Types].xml, accepting either attribute order.
var wordPartName = []*regexp.Regexp{
	regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"`),
	regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"[^>]+PartName="([^"]+)"`),
}

// extractDOCX extracts text from .docx bytes. A .docx is a zip whose main
// body lives at the part named in [Content_Types].xml, conventionally
// word/document.xml. All <w:t> text nodes are collected so content survives
// regardless of paragraph and run attributes.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	docPath := wordDocumentPath
	if types, err := zipEntry(zr, contentTypesPath); err == nil && types != nil {
		for _, re := range wordPartName {
			if m := re.FindSubmatch(types); len(m) > 1 {
				docPath = strings.TrimPrefix(string(m[1]), "/")
				break
			}
		}
	}

	docXML, err := zipEntry(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	var b strings.Builder
	for _, m := range wordTextNode.FindAllSubmatch(docXML, -1) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.Write(m[1])
	}
	return strings.TrimSpace(b.String()), nil
}

// extractDOC handles legacy .doc files. Files that are really OOXML under a
// .doc name are parsed normally; the old binary format is reported as a
// parse failure so the file shows up in the ingest report.
func extractDOC(content []byte) (string, error) {
	if text, err := extractDOCX(content); err == nil {
		return text, nil
	}
	return "", fmt.Errorf("legacy .doc binary format is not supported, convert the file to .docx")
}
