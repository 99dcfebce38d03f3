package charset

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1251 Encoding = "windows-1251"
	EncodingKOI8R       Encoding = "koi8-r"
	EncodingAuto        Encoding = "auto"
)

var declarationPattern = regexp.MustCompile(`<\?xml[^?]*encoding=["']([^"']+)["'][^?]*\?>`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize maps common aliases onto a supported Encoding
func Normalize(name string) Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto
	case "utf-8", "utf8":
		return EncodingUTF8
	case "windows-1251", "cp1251", "win-1251":
		return EncodingWindows1251
	case "koi8-r", "koi8r":
		return EncodingKOI8R
	default:
		return Encoding(strings.ToLower(name))
	}
}

// DetectEncoding detects the encoding of a byte buffer.
// The XML declaration wins when present; invalid UTF-8 without a declaration is treated as Windows-1251.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}

	head := data
	if len(head) > 200 {
		head = head[:200]
	}
	if match := declarationPattern.FindSubmatch(head); len(match) > 1 {
		if enc := Normalize(string(match[1])); enc != EncodingAuto {
			return enc
		}
	}

	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1251
}

// Decode converts data in enc to UTF-8 bytes, stripping a UTF-8 BOM.
// Data that is already valid UTF-8 is returned as-is regardless of the declared encoding.
func Decode(data []byte, enc Encoding) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if enc == EncodingAuto || enc == "" {
		enc = DetectEncoding(data)
	}
	if utf8.Valid(data) {
		return data, nil
	}

	cm, err := charmapFor(enc)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return out, nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	if enc == EncodingUTF8 || enc == "" {
		return r, nil
	}
	cm, err := charmapFor(enc)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, cm.NewDecoder()), nil
}

func charmapFor(enc Encoding) (encoding.Encoding, error) {
	switch enc {
	case EncodingWindows1251:
		return charmap.Windows1251, nil
	case EncodingKOI8R:
		return charmap.KOI8R, nil
	case EncodingUTF8:
		return encoding.Nop, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}
