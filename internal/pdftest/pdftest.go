// Package pdftest builds minimal single-font PDF files in memory for
// tests. The output carries a correct xref table and uncompressed
// content streams so both PDF readers used in this repo accept it.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Build returns a PDF with one page per entry; each entry is the list of
// text lines drawn on that page. An empty entry produces a page with no
// text operators, which reads back as zero text fragments.
func Build(pages ...[]string) []byte {
	numPages := len(pages)
	if numPages == 0 {
		pages = [][]string{nil}
		numPages = 1
	}

	// Object numbering: 1 catalog, 2 pages, then per page (page, content),
	// finally the shared font object.
	fontObj := 2 + 2*numPages + 1
	totalObjs := fontObj + 1 // including object 0

	var buf bytes.Buffer
	offsets := make([]int, totalObjs)

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, numPages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), numPages))

	for i, lines := range pages {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1

		writeObj(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentObj))

		stream := contentStream(lines)
		writeObj(contentObj, fmt.Sprintf(
			"<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	writeObj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", totalObjs)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < totalObjs; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		totalObjs, xrefOffset)

	return buf.Bytes()
}

func contentStream(lines []string) string {
	if len(lines) == 0 {
		return "\n"
	}
	var sb strings.Builder
	sb.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("0 -16 Td\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escape(line))
	}
	sb.WriteString("ET\n")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
