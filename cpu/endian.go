package cpu

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// WordsToBytes serializes words big-endian, the DCPU-16 image format.
func WordsToBytes(words []uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = binary.BigEndian.AppendUint16(out, w)
	}
	return out
}

// BytesToWords reads a big-endian image. A trailing odd byte becomes the
// high half of a final word.
func BytesToWords(b []byte) []uint16 {
	out := make([]uint16, 0, (len(b)+1)/2)
	for ; len(b) >= 2; b = b[2:] {
		out = append(out, binary.BigEndian.Uint16(b))
	}
	if len(b) == 1 {
		out = append(out, uint16(b[0])<<8)
	}
	return out
}

// HexWords formats words as four upper-case hex digits each, space-separated.
func HexWords(words []uint16) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%04X", w)
	}
	return strings.Join(parts, " ")
}
