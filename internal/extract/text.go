package extract

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ExtractText reads a plain text file. A UTF-16 byte order mark selects
// UTF-16; otherwise valid UTF-8 is used as is, and anything else is read as
// Latin-1, which decodes any input.
func ExtractText(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{
			Text:   "Error reading text file: " + err.Error(),
			Method: "Error",
			Err:    fmt.Errorf("%w: %w", ErrRead, err),
		}
	}
	text, method, err := decodeText(data)
	if err != nil {
		return Result{
			Text:   "Error decoding text file: " + err.Error(),
			Method: "Error",
			Err:    fmt.Errorf("%w: %w", ErrRead, err),
		}
	}
	return Result{Text: text, Method: method}
}

func decodeText(data []byte) (text, method string, err error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", "", err
		}
		return string(out), "UTF-16 Text Parser", nil
	case utf8.Valid(data):
		return string(bytes.TrimPrefix(data, bomUTF8)), "UTF-8 Text Parser", nil
	default:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", "", err
		}
		return string(out), "Latin-1 Text Parser", nil
	}
}
