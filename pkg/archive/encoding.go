package archive

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LookupEncoding resolves a fallback encoding name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, errors.Errorf("unsupported encoding %q", name)
	}
}

// decoded is the text of one member plus how it was stored
type decoded struct {
	text     string
	encoding string
	bom      bool
}

// ErrUnmappedByte is returned when a member holds a byte the fallback
// encoding leaves undefined, e.g. 0x81 in windows-1252.
var ErrUnmappedByte = errors.Base("byte has no mapping in the fallback encoding")

// decode tries UTF-8 first and the fallback once. The fallback encodings are
// single-byte, so a U+FFFD in their output marks an undefined input byte and
// the member is rejected instead of silently corrupted. latin-1 defines all
// 256 bytes and never fails here.
func decode(data []byte, fallback encoding.Encoding, fallbackName string) (decoded, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
		if utf8.Valid(data) {
			return decoded{text: string(data), encoding: "utf-8", bom: true}, nil
		}
	}
	if utf8.Valid(data) {
		return decoded{text: string(data), encoding: "utf-8"}, nil
	}

	out, err := fallback.NewDecoder().Bytes(data)
	if err != nil {
		return decoded{}, errors.Errorf("decoding %s: %w", fallbackName, err)
	}
	if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
		return decoded{}, errors.Errorf("decoding %s at byte %d: %w", fallbackName, utf8.RuneCount(out[:i]), ErrUnmappedByte)
	}
	return decoded{text: string(out), encoding: fallbackName}, nil
}
