package document

import (
	"strings"
	"unicode/utf16"
)

const minLegacyRun = 4

// extractLegacyDOC recovers runs of printable UTF-16LE text from a binary Word file.
func extractLegacyDOC(data []byte) string {
	var runs []string
	var current []uint16
	flush := func() {
		if len(current) >= minLegacyRun {
			if s := strings.TrimSpace(string(utf16.Decode(current))); s != "" {
				runs = append(runs, s)
			}
		}
		current = current[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		if isPrintableUnit(u) {
			current = append(current, u)
			continue
		}
		flush()
	}
	flush()
	if len(runs) == 0 {
		return extractByteRuns(data)
	}
	return strings.Join(runs, "\n")
}

const minByteRun = 8

// extractByteRuns covers files that store their text as 8-bit characters.
func extractByteRuns(data []byte) string {
	var runs []string
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && (data[i] >= 0x20 && data[i] < 0x7F || data[i] == '\t') {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= minByteRun {
			if s := strings.TrimSpace(string(data[start:i])); s != "" {
				runs = append(runs, s)
			}
		}
		start = -1
	}
	return strings.Join(runs, "\n")
}

func isPrintableUnit(u uint16) bool {
	switch {
	case u == '\t':
		return true
	case u == '\r', u == '\n':
		return false
	case u < 0x20, u >= 0xD800 && u < 0xE000, u >= 0xFFF0:
		return false
	}
	return u < 0x2500
}

// decodeUTF16BE decodes big-endian UTF-16 as used by PDF text strings.
func decodeUTF16BE(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	return string(utf16.Decode(units))
}
