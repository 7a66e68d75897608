package disassembler

import (
	"fmt"
	"strings"
)

const (
	minStringLen = 4
	wordsPerLine = 8
)

func isPrintable(w uint16) bool {
	return w >= 0x20 && w <= 0x7E
}

// formatData renders words that are not code. Runs of at least minStringLen
// printable characters become strings, zero-terminated ones with the z flag.
func formatData(data []uint16, stringCounter *int) string {
	var sb strings.Builder
	n := len(data)
	pending := 0
	for i := 0; i < n; {
		if !isPrintable(data[i]) {
			i++
			continue
		}
		end := i
		for end < n && isPrintable(data[end]) {
			end++
		}
		if end-i < minStringLen {
			i = end
			continue
		}
		sb.WriteString(formatHexWords(data[pending:i]))

		flag := ""
		next := end
		if end < n && data[end] == 0 {
			flag = "z"
			next++
		}
		fmt.Fprintf(&sb, ":string%d\n", *stringCounter)
		(*stringCounter)++
		fmt.Fprintf(&sb, "    %-8s %s\"%s\"\n", "DAT", flag, escape(data[i:end]))
		i, pending = next, next
	}
	sb.WriteString(formatHexWords(data[pending:]))
	return sb.String()
}

func escape(run []uint16) string {
	var b strings.Builder
	for _, w := range run {
		if w == '"' || w == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(byte(w))
	}
	return b.String()
}

// formatHexWords writes words as DAT lines, wordsPerLine to a line.
func formatHexWords(data []uint16) string {
	var sb strings.Builder
	for i := 0; i < len(data); i += wordsPerLine {
		chunk := data[i:min(i+wordsPerLine, len(data))]
		parts := make([]string, len(chunk))
		for j, w := range chunk {
			parts[j] = hexWord(w)
		}
		fmt.Fprintf(&sb, "    %-8s %s\n", "DAT", strings.Join(parts, ", "))
	}
	return sb.String()
}
