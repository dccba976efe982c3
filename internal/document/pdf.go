package document

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF reads every page content stream and collects the shown text.
func extractPDF(data []byte) (string, int, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", 0, err
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(textFromContentStream(content)); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), ctx.PageCount, nil
}

// textFromContentStream walks content stream tokens and emits the operands of
// the text showing operators (Tj, TJ, ' and "). Positioning operators become
// line breaks or spaces.
func textFromContentStream(content []byte) string {
	var out strings.Builder
	var pending []string

	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteral(content, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(content[i:], '>')
			if end < 0 {
				return out.String()
			}
			pending = append(pending, decodeHexString(content[i+1:i+end]))
			i += end + 1
		case isDelimiter(c) || isSpace(c):
			i++
		default:
			start := i
			for i < len(content) && !isDelimiter(content[i]) && !isSpace(content[i]) {
				i++
			}
			op := string(content[start:i])
			switch op {
			case "Tj", "TJ":
				out.WriteString(strings.Join(pending, ""))
			case "'", `"`:
				newline()
				out.WriteString(strings.Join(pending, ""))
			case "Td", "TD", "T*", "ET":
				newline()
			case "ID":
				if end := bytes.Index(content[i:], []byte("EI")); end >= 0 {
					i += end + 2
				} else {
					i = len(content)
				}
			}
			if !isOperand(op) {
				pending = pending[:0]
			}
		}
	}
	return out.String()
}

func readLiteral(content []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for ; i < len(content); i++ {
		c := content[i]
		switch c {
		case '\\':
			i++
			if i >= len(content) {
				return b.String(), i
			}
			switch esc := content[i]; esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if esc >= '0' && esc <= '7' {
					val := int(esc - '0')
					for k := 0; k < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(content[i]-'0')
					}
					writeLatin1(&b, byte(val))
				} else {
					b.WriteByte(esc)
				}
			}
		case '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		default:
			writeLatin1(&b, c)
		}
	}
	return b.String(), i
}

func decodeHexString(raw []byte) string {
	cleaned := bytes.Map(func(r rune) rune {
		if isSpace(byte(r)) {
			return -1
		}
		return r
	}, raw)
	if len(cleaned)%2 == 1 {
		cleaned = append(cleaned, '0')
	}
	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	n, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return ""
	}
	decoded = decoded[:n]
	if len(decoded) >= 2 && decoded[0] == 0xFE && decoded[1] == 0xFF {
		return decodeUTF16BE(decoded[2:])
	}
	var b strings.Builder
	for _, c := range decoded {
		writeLatin1(&b, c)
	}
	return b.String()
}

func writeLatin1(b *strings.Builder, c byte) {
	if c < 0x80 {
		b.WriteByte(c)
		return
	}
	b.WriteRune(rune(c))
}

func isOperand(tok string) bool {
	if tok == "" {
		return true
	}
	switch tok[0] {
	case '/', '-', '+', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return tok == "true" || tok == "false" || tok == "null"
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '%':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}
