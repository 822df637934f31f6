package fetch

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts a subtitle file to NFC normalized UTF-8. UTF-8 and UTF-16
// byte order marks are honoured; bytes that are not valid UTF-8 are read as
// Windows-1252, the usual encoding of older SRT files.
func Decode(data []byte) (string, error) {
	var (
		text []byte
		err  error
	)
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		text = data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16LE):
		text, err = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
	case bytes.HasPrefix(data, bomUTF16BE):
		text, err = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
	case utf8.Valid(data):
		text = data
	default:
		text, err = charmap.Windows1252.NewDecoder().Bytes(data)
	}
	if err != nil {
		return "", err
	}
	return norm.NFC.String(string(text)), nil
}
