package system

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DecodeOutput converts captured process output to text. Invalid UTF-8
// sequences are replaced with U+FFFD; decoding never fails.
func DecodeOutput(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}
